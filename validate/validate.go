// Package validate checks a board catalog. For every level and daily puzzle
// it verifies that:
//   - the board file exists and its id matches the file name
//   - the definition is playable (square layout, A-Z letters, letters match words)
//   - the words in the board file match the words listed in the catalog
//
// Board files that no level references are reported as warnings.
package validate

import (
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
)

// ValidationResult captures the outcome of validating a single board.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	Board  string
	Valid  bool
	Errors []string
}

// Catalog validates every level of every category, then the daily pool.
func Catalog(m *catalog.Manager) ([]ValidationResult, error) {
	var results []ValidationResult
	referenced := make(map[string]bool)

	categories := m.Categories()
	daily, err := m.Category(catalog.DailyPuzzleCategory)
	if err != nil {
		return nil, err
	}
	categories = append(categories, *daily)

	for _, cat := range categories {
		for i, level := range cat.Levels {
			id := board.FormatID(cat.Name, i)
			referenced[id] = true
			results = append(results, validateLevel(m, id, level))
		}
	}

	ids, err := m.ListBoards()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if referenced[id] {
			continue
		}
		results = append(results, ValidationResult{
			Board:  id,
			Valid:  true,
			Errors: []string{"⚠ Not referenced by any category or the daily pool"},
		})
	}

	return results, nil
}

// validateLevel loads one board and compares it with its catalog entry.
func validateLevel(m *catalog.Manager, id string, level catalog.LevelInfo) ValidationResult {
	result := ValidationResult{
		Board:  id,
		Valid:  true,
		Errors: []string{},
	}

	def, err := m.LoadBoard(id)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to load board: %v", err))
		return result
	}

	if !sameWords(def.Words, level.Words) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Catalog words %v do not match board words %v", level.Words, def.Words))
	}

	seen := make(map[string]bool)
	for _, w := range def.Words {
		if seen[w] {
			result.Errors = append(result.Errors, fmt.Sprintf("⚠ Word %s is listed twice", w))
		}
		seen[w] = true
	}

	if result.Valid {
		letters := 0
		for _, tile := range def.Tiles() {
			if tile.HasLetter {
				letters++
			}
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ %dx%d grid, %d letters, %d words", def.Size, def.Size, letters, len(def.Words)))
	}

	return result
}

func sameWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Report prints the results and reports whether every board is valid.
func Report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.Board)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All boards are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some boards have errors")
	}
	return allValid
}
