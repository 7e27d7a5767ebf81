package progress

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultSaveDB is the database file name inside the data directory.
const DefaultSaveDB = "save.db"

// defaultSlot is the key of the single progress row.
const defaultSlot = "default"

// SQLitePersistence keeps the record as one JSON row in a SQLite database.
type SQLitePersistence struct {
	db     *sql.DB
	slot   string
	logger zerolog.Logger
}

// NewSQLitePersistence opens (creating if needed) the database at dsn and
// applies pending migrations.
func NewSQLitePersistence(dsn string, logger zerolog.Logger) (*SQLitePersistence, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLitePersistence{db: db, slot: defaultSlot, logger: logger}, nil
}

// Close releases the database handle.
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}

// Load reads the record row.
func (sp *SQLitePersistence) Load(ctx context.Context) (*Record, error) {
	var payload string
	err := sp.db.QueryRowContext(ctx,
		`SELECT payload FROM save_records WHERE slot = ?`, sp.slot,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query save record: %w", err)
	}
	return DecodeRecord([]byte(payload))
}

// Save upserts the record row.
func (sp *SQLitePersistence) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = sp.db.ExecContext(ctx, `
        INSERT INTO save_records (slot, version, payload, updated_at)
        VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
        ON CONFLICT(slot) DO UPDATE SET
            version = excluded.version,
            payload = excluded.payload,
            updated_at = excluded.updated_at`,
		sp.slot, rec.Version, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write save record: %w", err)
	}
	return nil
}

// openDB opens a SQLite file with WAL journaling and a busy timeout,
// creating the parent directory when needed.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies the embedded migrations in lexical order, recording each in
// the _migrations table.
func migrate(db *sql.DB, logger zerolog.Logger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := strings.TrimPrefix(f, "migrations/")

		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name = ?`, name).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrationsFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		logger.Info().Str("migration", name).Msg("applied")
	}
	return nil
}
