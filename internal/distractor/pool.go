// Package distractor samples decoy words, pieces and sentences from a corpus.
package distractor

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/phrasedrill/internal/answer"
	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/script"
	"github.com/conorfennell/phrasedrill/internal/token"
)

// Config tunes sampling. Zero values are replaced by the defaults noted on
// each field.
type Config struct {
	LengthTolerance float64 // zero → 0.3, relative length window for similar sentences
	TokenCandidates int     // zero → 10, stop scanning for words after this many candidates
	ScanLimit       int     // zero → 200, maximum tokens examined per call
	MinDecoyPieces  int     // zero → 4
	MaxDecoyPieces  int     // zero → 10
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		LengthTolerance: 0.3,
		TokenCandidates: 10,
		ScanLimit:       200,
		MinDecoyPieces:  4,
		MaxDecoyPieces:  10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LengthTolerance <= 0 {
		c.LengthTolerance = d.LengthTolerance
	}
	if c.TokenCandidates <= 0 {
		c.TokenCandidates = d.TokenCandidates
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = d.ScanLimit
	}
	if c.MinDecoyPieces <= 0 {
		c.MinDecoyPieces = d.MinDecoyPieces
	}
	if c.MaxDecoyPieces <= 0 {
		c.MaxDecoyPieces = d.MaxDecoyPieces
	}
	if c.MaxDecoyPieces < c.MinDecoyPieces {
		c.MaxDecoyPieces = c.MinDecoyPieces
	}
	return c
}

// Pool samples distractors using its random source. A Pool is not safe for
// concurrent use because *rand.Rand is not.
type Pool struct {
	rng *rand.Rand
	cfg Config
}

// New returns a Pool drawing from rng.
func New(rng *rand.Rand, cfg Config) *Pool {
	return &Pool{rng: rng, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (p *Pool) Config() Config { return p.cfg }

// TokenDistractors returns up to limit distinct words from texts whose length is
// within [len(target)-1, len(target)+2] characters. The target itself, in any
// letter case, is never returned.
func (p *Pool) TokenDistractors(target string, texts []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	tl := utf8.RuneCountInString(target)
	seen := make(map[string]bool)
	var candidates []string
	scanned := 0

scan:
	for _, i := range p.rng.Perm(len(texts)) {
		for _, tok := range token.Tokenize(texts[i]) {
			scanned++
			if scanned > p.cfg.ScanLimit {
				break scan
			}
			w := strings.TrimFunc(tok, script.IsPunct)
			if w == "" || seen[w] || strings.EqualFold(w, target) {
				continue
			}
			if n := utf8.RuneCountInString(w); n < tl-1 || n > tl+2 {
				continue
			}
			seen[w] = true
			candidates = append(candidates, w)
		}
		if len(candidates) >= p.cfg.TokenCandidates {
			break
		}
	}

	p.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:min(limit, len(candidates))]
}

// SentenceDistractors returns up to limit texts in lang from other sentences of
// corpus. Sentences of similar length are preferred; when they run out any
// other sentence is used. The target text is never returned.
func (p *Pool) SentenceDistractors(target domain.Sentence, lang string, corpus []domain.Sentence, limit int) []string {
	text, ok := target.Text(lang)
	if !ok || limit <= 0 {
		return nil
	}

	seen := map[string]bool{text: true}
	var similar, rest []string
	for _, i := range p.rng.Perm(len(corpus)) {
		s := corpus[i]
		if s.ID == target.ID {
			continue
		}
		t, ok := s.Text(lang)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		if p.similarLength(utf8.RuneCountInString(t), utf8.RuneCountInString(text)) {
			similar = append(similar, t)
		} else {
			rest = append(rest, t)
		}
	}

	out := similar[:min(limit, len(similar))]
	for _, t := range rest {
		if len(out) >= limit {
			break
		}
		out = append(out, t)
	}
	return out
}

// PuzzleDecoys returns decoy pieces for an assembly puzzle whose answer is
// made of answerPieces. Pieces come from texts whose length is close to
// targetLen. Between MinDecoyPieces and MaxDecoyPieces pieces are requested
// (half the answer's piece count, clamped); pieces that are not already part
// of the answer are preferred. Fewer are returned if the texts run out.
func (p *Pool) PuzzleDecoys(answerPieces []string, texts []string, targetLen int) []string {
	want := min(max(len(answerPieces)/2, p.cfg.MinDecoyPieces), p.cfg.MaxDecoyPieces)

	inAnswer := make(map[string]bool, len(answerPieces))
	for _, pc := range answerPieces {
		inAnswer[pc] = true
	}
	whole := answer.Normalize(answer.Reconstruct(answerPieces))

	seen := make(map[string]bool)
	var unique, raw []string
	for _, i := range p.rng.Perm(len(texts)) {
		t := texts[i]
		if !p.similarLength(utf8.RuneCountInString(t), targetLen) {
			continue
		}
		for _, pc := range token.Tokenize(t) {
			if utf8.RuneCountInString(pc) == 1 && script.IsPunctOnly(pc) {
				continue
			}
			if answer.Normalize(pc) == whole {
				continue
			}
			raw = append(raw, pc)
			if !inAnswer[pc] && !seen[pc] {
				seen[pc] = true
				unique = append(unique, pc)
			}
		}
		if len(raw) >= p.cfg.ScanLimit {
			break
		}
	}

	out := unique[:min(want, len(unique))]
	if len(out) < want {
		used := make(map[string]int, len(out))
		for _, pc := range out {
			used[pc]++
		}
		// Top up from the raw pool. Each raw occurrence is used at most once.
		for _, pc := range raw {
			if len(out) >= want {
				break
			}
			if used[pc] > 0 {
				used[pc]--
				continue
			}
			out = append(out, pc)
		}
	}
	return out
}

func (p *Pool) similarLength(n, target int) bool {
	lo := float64(target) * (1 - p.cfg.LengthTolerance)
	hi := float64(target) * (1 + p.cfg.LengthTolerance)
	return float64(n) >= lo && float64(n) <= hi
}
