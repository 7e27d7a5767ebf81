package board

// SequentialRevealer picks hint letters word by word. Starting at the cursor
// it walks the words in order, wrapping around, and skips words that are
// already found or fully revealed. Within a word it reveals the lowest letter
// index that the hint log has not shown yet.
//
// The returned cursor stays on the chosen word so the next hint continues
// with the same word until it is exhausted.
type SequentialRevealer struct{}

// RevealNextHint returns the new cursor and the letter to reveal, or ok=false
// when no word has an unrevealed letter left.
func (SequentialRevealer) RevealNextHint(s *State, cursor int) (next int, hint HintLetter, ok bool) {
	n := len(s.Words)
	if n == 0 {
		return cursor, HintLetter{}, false
	}
	if cursor < 0 {
		cursor = 0
	}

	for skipped := 0; skipped < n; skipped++ {
		wi := (cursor + skipped) % n
		if s.FoundWords[wi] {
			continue
		}
		revealed := s.RevealedLetters(wi)
		length := len([]rune(s.Words[wi]))
		for li := 0; li < length; li++ {
			if !revealed[li] {
				return cursor + skipped, HintLetter{WordIndex: wi, LetterIndex: li}, true
			}
		}
	}

	return cursor, HintLetter{}, false
}
