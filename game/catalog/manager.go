package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/wordbrain/game/board"
)

// DailyPuzzleCategory is the name of the synthetic category built from the
// daily puzzle pool.
const DailyPuzzleCategory = "Daily Puzzle"

const (
	catalogFile = "catalog.json"
	boardsDir   = "boards"
)

var (
	ErrBoardNotFound    = errors.New("board not found")
	ErrInvalidBoard     = errors.New("invalid board")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidCatalog   = errors.New("invalid catalog")
)

// LevelInfo describes one level of a category.
type LevelInfo struct {
	Words []string `json:"words"`
}

// Category is a named group of sequential levels.
type Category struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Levels      []LevelInfo `json:"levels"`
}

type catalogDocument struct {
	Categories   []Category  `json:"categories"`
	DailyPuzzles []LevelInfo `json:"daily_puzzles"`
}

// Manager loads the category catalog and board definitions from a file
// system and caches parsed boards.
type Manager struct {
	fsys       fs.FS
	categories []Category
	daily      []LevelInfo
	boards     map[string]*board.Definition
	mu         sync.RWMutex
}

// NewManager reads catalog.json from the root of fsys. Board definitions are
// read lazily from boards/<id>.json.
func NewManager(fsys fs.FS) (*Manager, error) {
	data, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", catalogFile, err)
	}

	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	// Board files are keyed by file name, so two names that map to the same
	// prefix would share boards.
	seen := map[string]string{fileName(DailyPuzzleCategory): DailyPuzzleCategory}
	for _, c := range doc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrInvalidCatalog)
		}
		prefix := fileName(c.Name)
		if other, ok := seen[prefix]; ok {
			if other == DailyPuzzleCategory {
				return nil, fmt.Errorf("%w: %q is reserved for the daily puzzle pool", ErrInvalidCatalog, c.Name)
			}
			return nil, fmt.Errorf("%w: category %q collides with %q", ErrInvalidCatalog, c.Name, other)
		}
		seen[prefix] = c.Name
	}

	return &Manager{
		fsys:       fsys,
		categories: doc.Categories,
		daily:      doc.DailyPuzzles,
		boards:     make(map[string]*board.Definition),
	}, nil
}

// NewDirManager creates a manager over a directory on disk.
func NewDirManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("boards directory does not exist: %s", dir)
	}
	return NewManager(os.DirFS(dir))
}

// LoadBoard loads a board definition by id.
func (m *Manager) LoadBoard(id string) (*board.Definition, error) {
	m.mu.RLock()
	if def, exists := m.boards[id]; exists {
		m.mu.RUnlock()
		return def, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if def, exists := m.boards[id]; exists {
		return def, nil
	}

	p := boardPath(id)
	if id == "" || strings.ContainsAny(id, "/\\") || !fs.ValidPath(p) {
		return nil, fmt.Errorf("%w: %q", ErrBoardNotFound, id)
	}

	data, err := fs.ReadFile(m.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
		}
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	var def board.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBoard, id, err)
	}
	if def.ID != id {
		return nil, fmt.Errorf("%w: file for %s declares id %q", ErrInvalidBoard, id, def.ID)
	}
	if err := board.ValidateDefinition(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	m.boards[id] = &def
	return &def, nil
}

// ListBoards returns the ids of every board file, sorted.
func (m *Manager) ListBoards() ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, boardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read boards directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(m.fsys, path.Join(boardsDir, entry.Name()))
		if err != nil {
			continue
		}
		var head struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(data, &head) != nil || head.ID == "" {
			continue
		}
		ids = append(ids, head.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Categories returns the configured categories, without the daily puzzle.
func (m *Manager) Categories() []Category {
	out := make([]Category, len(m.categories))
	copy(out, m.categories)
	return out
}

// Category looks up a category by name. The daily puzzle name resolves to a
// synthetic category whose levels are the daily pool.
func (m *Manager) Category(name string) (*Category, error) {
	if name == DailyPuzzleCategory {
		return &Category{
			Name:        DailyPuzzleCategory,
			Description: "A new puzzle every day",
			Levels:      append([]LevelInfo(nil), m.daily...),
		}, nil
	}
	for i := range m.categories {
		if m.categories[i].Name == name {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
}

// LevelCount returns the number of levels in a category.
func (m *Manager) LevelCount(category string) (int, error) {
	c, err := m.Category(category)
	if err != nil {
		return 0, err
	}
	return len(c.Levels), nil
}

// DailyPuzzleCount returns the size of the daily pool.
func (m *Manager) DailyPuzzleCount() int {
	return len(m.daily)
}

// boardPath maps a board id to its file.
func boardPath(id string) string {
	return path.Join(boardsDir, fileName(id)+".json")
}

// fileName turns spaces into underscores so ids like "Daily Puzzle_0" stay
// portable file names.
func fileName(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
