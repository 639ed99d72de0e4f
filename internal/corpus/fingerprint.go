// Package corpus reads sentence records from markdown files.
package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"strings"

	"github.com/conorfennell/phrasedrill/internal/answer"
	"github.com/conorfennell/phrasedrill/internal/domain"
)

// Normalize renders a sentence's texts as one canonical string: languages in
// sorted order, each text normalized, one "lang:text" per line.
func Normalize(s domain.Sentence) string {
	langs := make([]string, 0, len(s.Texts))
	for lang := range s.Texts {
		langs = append(langs, lang)
	}
	slices.Sort(langs)

	lines := make([]string, 0, len(langs))
	for _, lang := range langs {
		lines = append(lines, lang+":"+answer.Normalize(s.Texts[lang]))
	}
	return strings.Join(lines, "\n")
}

// Fingerprint derives a stable positive id from the sentence's normalized
// texts. Topics and the existing id do not take part.
func Fingerprint(s domain.Sentence) int64 {
	sum := sha256.Sum256([]byte(Normalize(s)))
	id := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	if id == 0 {
		return 1
	}
	return id
}

// ByTopic returns the sentences tagged with topic, ignoring case.
// An empty topic returns all sentences.
func ByTopic(sentences []domain.Sentence, topic string) []domain.Sentence {
	if topic == "" {
		return sentences
	}
	var out []domain.Sentence
	for _, s := range sentences {
		if slices.ContainsFunc(s.Topics, func(t string) bool { return strings.EqualFold(t, topic) }) {
			out = append(out, s)
		}
	}
	return out
}
