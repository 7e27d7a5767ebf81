package board

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateDefinition checks that a definition describes a playable board:
// a square layout of A-Z letters and empty cells whose letters are exactly
// the letters of the required words.
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return fmt.Errorf("board validation: definition is nil")
	}
	if def.ID == "" {
		return fmt.Errorf("board validation: id is required")
	}
	if def.Size < MinBoardSize || def.Size > MaxBoardSize {
		return fmt.Errorf("board validation: size must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, def.Size)
	}
	if len(def.Layout) != def.Size {
		return fmt.Errorf("board validation: layout must have %d rows to match size, got %d", def.Size, len(def.Layout))
	}
	if len(def.Words) == 0 {
		return fmt.Errorf("board validation: at least one word is required")
	}

	var gridLetters []rune
	for i, row := range def.Layout {
		cells := []rune(row)
		if len(cells) != def.Size {
			return fmt.Errorf("board validation: row %d must have %d cells to match size, got %d", i+1, def.Size, len(cells))
		}
		for j, ch := range cells {
			switch {
			case ch == EmptyTile:
			case ch >= 'A' && ch <= 'Z':
				gridLetters = append(gridLetters, ch)
			default:
				return fmt.Errorf("board validation: invalid character '%c' at row %d, col %d", ch, i+1, j+1)
			}
		}
	}

	var wordLetters []rune
	for i, word := range def.Words {
		if word == "" {
			return fmt.Errorf("board validation: word %d is empty", i+1)
		}
		for _, ch := range word {
			if ch < 'A' || ch > 'Z' {
				return fmt.Errorf("board validation: word %q must contain only upper-case letters A-Z", word)
			}
			wordLetters = append(wordLetters, ch)
		}
	}

	if sortedLetters(gridLetters) != sortedLetters(wordLetters) {
		return fmt.Errorf("board validation: layout letters %q do not match word letters %q",
			sortedLetters(gridLetters), sortedLetters(wordLetters))
	}

	return nil
}

func sortedLetters(rs []rune) string {
	out := make([]rune, len(rs))
	copy(out, rs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	var b strings.Builder
	for _, r := range out {
		b.WriteRune(r)
	}
	return b.String()
}
