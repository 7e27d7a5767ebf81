// Package progress stores the player's progression and writes it to durable
// storage.
//
// A Store holds everything that survives a restart:
//
//   - the hint credit
//   - the active category and level index
//   - the daily puzzle index and its next rollover date
//   - the in-progress board states, keyed by board id
//   - the set of completed board ids
//
// The store itself is a plain in-memory model with no locking; the service
// that owns it serializes access and calls Persist after every mutation.
//
// Persistence backends:
//
// Persistence is a two-method interface (Load and Save) over a single
// Record. Three backends are provided:
//
//	FilePersistence     one JSON file, rewritten atomically via rename
//	SQLitePersistence   one JSON row in a SQLite database (WAL mode)
//	MemoryPersistence   in-process only, used by tests and ephemeral runs
//
// Record format:
//
// The record is JSON with camelCase keys and an explicit version. Board
// states store tile letters as one-character strings ("" for an empty tile)
// and revealed hint letters as "word,letter" pairs. The next daily rollover
// is a YYYYMMDD local date. Older unversioned records are still accepted:
// missing index keys decode as -1, and a board whose hint cursor was stored
// under the legacy "NextDailyPuzzleAt" key keeps its cursor.
//
// Loading never fails hard. Open logs why a record could not be used and
// falls back to fresh defaults.
//
// Usage:
//
//	p, err := progress.NewFilePersistence("data")
//	if err != nil {
//		return err
//	}
//	store := progress.Open(ctx, p, 3, log.Logger)
//	store.AddHints(2)
//	if err := store.Persist(ctx); err != nil {
//		log.Warn().Err(err).Msg("progress not saved")
//	}
package progress
