// Package token splits sentences into the pieces used by assembly puzzles.
//
// Text without any Hiragana, Katakana or Han character is split on whitespace,
// with trailing punctuation split off into its own piece. Text containing CJK
// characters is split wherever the script class changes, then short pieces
// are smoothed together.
package token

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conorfennell/phrasedrill/internal/script"
)

// maxMergedLen is the longest piece, in characters, produced by smoothing.
const maxMergedLen = 3

// minPieces is the piece count below which CJK text falls back to one
// piece per character.
const minPieces = 3

// Tokenize splits text into ordered pieces. Empty or blank text yields nil.
func Tokenize(text string) []string {
	if script.ContainsCJK(text) {
		return tokenizeCJK(text)
	}
	return tokenizeSpaced(text)
}

func tokenizeSpaced(text string) []string {
	var pieces []string
	for _, tok := range strings.Fields(text) {
		head, tail := splitTrailingPunct(tok)
		pieces = append(pieces, head)
		if tail != "" {
			pieces = append(pieces, tail)
		}
	}
	return pieces
}

// splitTrailingPunct splits the trailing punctuation run off a token longer
// than one character. A token made only of punctuation is left whole.
func splitTrailingPunct(tok string) (string, string) {
	if utf8.RuneCountInString(tok) <= 1 {
		return tok, ""
	}
	i := len(tok)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(tok[:i])
		if !script.IsPunct(r) {
			break
		}
		i -= size
	}
	if i == 0 || i == len(tok) {
		return tok, ""
	}
	return tok[:i], tok[i:]
}

type kind int

const (
	kindCJK kind = iota
	kindWord
	kindPunct
)

type piece struct {
	text     []rune
	class    script.Class
	kind     kind
	afterGap bool // preceded by whitespace in the source text
}

func (p piece) String() string { return string(p.text) }

func tokenizeCJK(text string) []string {
	var (
		pieces []piece
		cur    piece
		chars  int
		gap    bool
	)
	flush := func() {
		if len(cur.text) > 0 {
			pieces = append(pieces, cur)
		}
		cur = piece{}
	}

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsSpace(r) {
			flush()
			gap = true
			continue
		}
		chars++
		if script.IsPunct(r) && !inWord(cur, runes, i) {
			flush()
			pieces = append(pieces, piece{text: []rune{r}, class: script.Classify(r), kind: kindPunct, afterGap: gap})
			gap = false
			continue
		}
		class, k := classOf(r)
		if len(cur.text) > 0 && cur.class != class {
			flush()
		}
		if len(cur.text) == 0 {
			cur.afterGap = gap
			gap = false
		}
		cur.class, cur.kind = class, k
		cur.text = append(cur.text, r)
	}
	flush()

	pieces = smooth(pieces)
	if len(pieces) < minPieces && chars >= minPieces {
		pieces = explode(pieces)
	}

	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.String()
	}
	return out
}

// inWord reports whether the ASCII punctuation at runes[i] sits between two
// word characters, as in "3.5" or "U.S.A", and so belongs to the word piece.
func inWord(cur piece, runes []rune, i int) bool {
	if runes[i] >= utf8.RuneSelf || len(cur.text) == 0 || cur.kind != kindWord || i+1 >= len(runes) {
		return false
	}
	next := runes[i+1]
	if unicode.IsSpace(next) || script.IsPunct(next) {
		return false
	}
	_, k := classOf(next)
	return k == kindWord
}

// classOf folds ASCII and other non-CJK letters into a single word class so
// that words such as "café" stay whole.
func classOf(r rune) (script.Class, kind) {
	switch c := script.Classify(r); c {
	case script.Hiragana, script.Katakana, script.Han:
		return c, kindCJK
	default:
		return script.ASCII, kindWord
	}
}

// smooth merges a one-character CJK piece into the directly following CJK
// piece while the result stays within maxMergedLen characters. Pieces
// separated by whitespace are never merged, so every piece stays a substring
// of the source text.
func smooth(pieces []piece) []piece {
	out := make([]piece, 0, len(pieces))
	for i := 0; i < len(pieces); i++ {
		p := pieces[i]
		if p.kind == kindCJK && len(p.text) == 1 && i+1 < len(pieces) {
			next := pieces[i+1]
			if next.kind == kindCJK && !next.afterGap && len(p.text)+len(next.text) <= maxMergedLen {
				merged := append(append([]rune{}, p.text...), next.text...)
				out = append(out, piece{text: merged, class: next.class, kind: kindCJK, afterGap: p.afterGap})
				i++
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// explode splits every CJK piece into single characters. Word and punctuation
// pieces are kept as they are.
func explode(pieces []piece) []piece {
	var out []piece
	for _, p := range pieces {
		if p.kind != kindCJK {
			out = append(out, p)
			continue
		}
		for _, r := range p.text {
			out = append(out, piece{text: []rune{r}, class: script.Classify(r), kind: kindCJK})
		}
	}
	return out
}
