// Package script classifies characters into the coarse script classes used
// to find piece boundaries in mixed Latin and Japanese/Chinese text.
package script

import "unicode"

// Class is the script class of a single character.
type Class int

const (
	Other Class = iota
	Hiragana
	Katakana
	Han
	CJKPunctuation
	ASCII
)

var names = [...]string{
	Other:          "Other",
	Hiragana:       "Hiragana",
	Katakana:       "Katakana",
	Han:            "Han",
	CJKPunctuation: "CJKPunctuation",
	ASCII:          "ASCII",
}

func (c Class) String() string {
	if c < 0 || int(c) >= len(names) {
		return "Class(?)"
	}
	return names[c]
}

// Classify returns the script class of r.
func Classify(r rune) Class {
	switch {
	case r >= 0x3040 && r <= 0x309F:
		return Hiragana
	case r >= 0x30A0 && r <= 0x30FF:
		return Katakana
	case r >= 0x4E00 && r <= 0x9FAF:
		return Han
	case r >= 0x3000 && r <= 0x303F:
		return CJKPunctuation
	case r >= 0x0020 && r <= 0x007F:
		return ASCII
	default:
		return Other
	}
}

// IsCJK reports whether r is Hiragana, Katakana or Han.
func IsCJK(r rune) bool {
	switch Classify(r) {
	case Hiragana, Katakana, Han:
		return true
	}
	return false
}

// ContainsCJK reports whether s has at least one Hiragana, Katakana or Han character.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if IsCJK(r) {
			return true
		}
	}
	return false
}

// IsPunct reports whether r is punctuation, either CJK punctuation
// (U+3000 block, excluding the ideographic space) or any Unicode punctuation.
func IsPunct(r rune) bool {
	if r == 0x3000 {
		return false
	}
	return Classify(r) == CJKPunctuation || unicode.IsPunct(r)
}

// IsPunctOnly reports whether s is non-empty and made of punctuation only.
func IsPunctOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsPunct(r) {
			return false
		}
	}
	return true
}

// IsASCIIOnly reports whether every character of s is in the ASCII class.
func IsASCIIOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if Classify(r) != ASCII {
			return false
		}
	}
	return true
}
