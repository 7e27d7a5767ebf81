// Command analyze prints quick, human-readable heuristics about the boards of
// a catalog. It summarizes grid size, letter and empty tiles, word lengths
// and hint capacity, and highlights letter tiles that have no neighbouring
// letter at the start of a level.
//
// Usage:
//
//	analyze            # bundled boards
//	analyze ./boards   # a catalog directory
package main

import (
	"fmt"
	"os"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/catalog"
)

// AnalysisPoint denotes a grid coordinate used during analysis output.
type AnalysisPoint struct {
	X, Y int
}

// BoardAnalysis is the summary of one board.
type BoardAnalysis struct {
	ID           string
	Size         int
	LetterTiles  int
	EmptyTiles   int
	Words        int
	LongestWord  string
	HintCapacity int
	Isolated     []AnalysisPoint
}

func main() {
	var (
		m   *catalog.Manager
		err error
	)
	if len(os.Args) > 1 {
		m, err = catalog.NewDirManager(os.Args[1])
	} else {
		m, err = catalog.NewDefaultManager()
	}
	if err != nil {
		fmt.Printf("Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	ids, err := m.ListBoards()
	if err != nil {
		fmt.Printf("Error listing boards: %v\n", err)
		os.Exit(1)
	}

	for _, id := range ids {
		fmt.Printf("\n=== Analyzing %s ===\n", id)
		def, err := m.LoadBoard(id)
		if err != nil {
			fmt.Printf("Error loading board: %v\n", err)
			continue
		}
		printAnalysis(def, analyzeBoard(def))
	}
}

// analyzeBoard computes the heuristics of a valid definition.
func analyzeBoard(def *board.Definition) BoardAnalysis {
	a := BoardAnalysis{
		ID:    def.ID,
		Size:  def.Size,
		Words: len(def.Words),
	}

	for _, w := range def.Words {
		n := len([]rune(w))
		a.HintCapacity += n
		if n > len([]rune(a.LongestWord)) {
			a.LongestWord = w
		}
	}

	tiles := def.Tiles()
	for i, tile := range tiles {
		if !tile.HasLetter {
			a.EmptyTiles++
			continue
		}
		a.LetterTiles++

		x, y := i%def.Size, i/def.Size
		if !hasLetterNeighbour(tiles, def.Size, x, y) {
			a.Isolated = append(a.Isolated, AnalysisPoint{x, y})
		}
	}

	return a
}

// hasLetterNeighbour checks the eight tiles around (x, y).
func hasLetterNeighbour(tiles []board.Tile, size, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= size || ny >= size {
				continue
			}
			if tiles[ny*size+nx].HasLetter {
				return true
			}
		}
	}
	return false
}

func printAnalysis(def *board.Definition, a BoardAnalysis) {
	fmt.Printf("Grid Size: %d x %d\n", a.Size, a.Size)
	fmt.Printf("Letter Tiles: %d | Empty Tiles: %d\n", a.LetterTiles, a.EmptyTiles)
	fmt.Printf("Words: %d | Longest: %s\n", a.Words, a.LongestWord)
	fmt.Printf("Hint Capacity: %d letters\n", a.HintCapacity)

	if len(a.Isolated) > 0 {
		fmt.Printf("⚠️  WARNING: %d letter tiles have no neighbouring letter!\n", len(a.Isolated))
		for i, p := range a.Isolated {
			if i < 5 {
				fmt.Printf("   Isolated: (%d, %d) - '%c'\n", p.X, p.Y, []rune(def.Layout[p.Y])[p.X])
			}
		}
		if len(a.Isolated) > 5 {
			fmt.Printf("   ... and %d more\n", len(a.Isolated)-5)
		}
	} else {
		fmt.Printf("✅ Every letter tile touches another letter\n")
	}
}
