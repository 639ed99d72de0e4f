// Package answer rebuilds learner answers from ordered pieces and compares
// them against the expected sentence.
package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conorfennell/phrasedrill/internal/script"
)

// closingPunct is the sentence punctuation that attaches to the preceding word.
const closingPunct = ".,;:?!"

// Reconstruct joins ordered pieces back into a sentence.
//
// Latin-style pieces are joined with single spaces, except that punctuation
// attaches to the preceding piece. When any piece contains CJK text the pieces
// are concatenated, and a space is only put between two non-CJK words.
func Reconstruct(pieces []string) string {
	cjk := false
	for _, p := range pieces {
		if script.ContainsCJK(p) {
			cjk = true
			break
		}
	}

	var b strings.Builder
	for i, p := range pieces {
		if i > 0 {
			prev := pieces[i-1]
			if cjk && spaceCJK(prev, p) || !cjk && !attaches(p) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(p)
	}
	return b.String()
}

// attaches reports whether p joins the previous piece without a space:
// closing punctuation, closing brackets and quotes, and ASCII quote marks.
// Any other punctuation, such as "&" or an opening bracket, keeps its space.
func attaches(p string) bool {
	if !script.IsPunctOnly(p) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(p)
	return attachesRune(r)
}

func attachesRune(r rune) bool {
	return strings.ContainsRune(closingPunct, r) || r == '"' || r == '\'' || unicode.In(r, unicode.Pe, unicode.Pf)
}

// opens reports whether r never takes a space after it after normalization.
func opens(r rune) bool {
	return unicode.In(r, unicode.Ps, unicode.Pi)
}

func isWord(p string) bool {
	return !script.ContainsCJK(p) && !script.IsPunctOnly(p)
}

func spaceCJK(prev, next string) bool {
	if !isWord(next) {
		return false
	}
	if isWord(prev) {
		return true
	}
	// "Hello, world" inside mixed text keeps the space after the comma.
	return script.IsASCIIOnly(prev) && strings.Contains(closingPunct, prev)
}

// Normalize makes two renderings of the same sentence comparable: runs of
// whitespace become one space, the text is trimmed and lowercased, and spaces
// are removed before any punctuation, after opening brackets and quotes, and
// next to CJK characters. Reconstruct only chooses whether a punctuation piece
// takes a space for display; the comparison does not depend on it.
func Normalize(text string) string {
	runes := []rune(strings.ToLower(strings.Join(strings.Fields(text), " ")))

	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		if r == ' ' {
			next := runes[i+1] // Fields output never ends in a space
			prev := runes[i-1]
			if script.IsPunct(next) || opens(prev) || cjkLike(next) || cjkLike(prev) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cjkLike(r rune) bool {
	return script.IsCJK(r) || script.Classify(r) == script.CJKPunctuation
}

// IsCorrect reports whether the ordered pieces spell correctAnswer.
func IsCorrect(pieces []string, correctAnswer string) bool {
	return Normalize(Reconstruct(pieces)) == Normalize(correctAnswer)
}

// IsChoiceCorrect reports whether a selected choice is the correct answer.
// Choices are copied verbatim from the corpus, so no normalization applies.
func IsChoiceCorrect(choice, correctAnswer string) bool {
	return choice == correctAnswer
}
