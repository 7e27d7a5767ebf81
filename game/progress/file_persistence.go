package progress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultSaveFile is the record file name inside the data directory.
const DefaultSaveFile = "save.json"

// FilePersistence keeps the record in a single JSON file that is rewritten
// on every save.
type FilePersistence struct {
	path string
}

// NewFilePersistence creates a file-backed persistence rooted at dataDir.
func NewFilePersistence(dataDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FilePersistence{path: filepath.Join(dataDir, DefaultSaveFile)}, nil
}

// Path returns the record file path.
func (fp *FilePersistence) Path() string {
	return fp.path
}

// Load reads the record file.
func (fp *FilePersistence) Load(ctx context.Context) (*Record, error) {
	data, err := os.ReadFile(fp.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSave
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return DecodeRecord(data)
}

// Save writes the record to a temporary file and renames it over the
// previous one, so a crash mid-write leaves the old record intact.
func (fp *FilePersistence) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fp.path), ".save-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp save file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close save file: %w", err)
	}
	if err := os.Rename(tmpPath, fp.path); err != nil {
		return fmt.Errorf("failed to replace save file: %w", err)
	}
	return nil
}
