// Package quiz builds practice questions from saved sentences and runs a
// quiz session over them.
package quiz

import (
	"cmp"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/phrasedrill/internal/answer"
	"github.com/conorfennell/phrasedrill/internal/distractor"
	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/script"
	"github.com/conorfennell/phrasedrill/internal/token"
)

// AudioResolver maps a sentence in a language to a playable handle, such as
// a URL or file path. ok is false when no audio exists.
type AudioResolver interface {
	Resolve(sentenceID int64, lang string) (handle string, ok bool)
}

// Config tunes question generation. Zero values are replaced by defaults.
type Config struct {
	BatchSize   int     // zero → 15
	RecentShare float64 // zero → 0.5, share of a batch drawn from recently saved sentences
	BlankDecoys int     // zero → 2
	AudioDecoys int     // zero → 3
	Distractor  distractor.Config
}

// DefaultConfig returns the default generation configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:   15,
		RecentShare: 0.5,
		BlankDecoys: 2,
		AudioDecoys: 3,
		Distractor:  distractor.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RecentShare <= 0 || c.RecentShare > 1 {
		c.RecentShare = d.RecentShare
	}
	if c.BlankDecoys <= 0 {
		c.BlankDecoys = d.BlankDecoys
	}
	if c.AudioDecoys <= 0 {
		c.AudioDecoys = d.AudioDecoys
	}
	return c
}

// blankCandidates is how many of the longest words compete for the blank.
const blankCandidates = 3

// Generator composes questions. It is not safe for concurrent use.
type Generator struct {
	rng   *rand.Rand
	pool  *distractor.Pool
	audio AudioResolver
	cfg   Config
	log   *slog.Logger
}

// NewGenerator returns a Generator drawing all randomness from rng.
// audio may be nil, in which case no audio questions are produced.
// logger may be nil.
func NewGenerator(rng *rand.Rand, audio AudioResolver, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.withDefaults()
	return &Generator{
		rng:   rng,
		pool:  distractor.New(rng, cfg.Distractor),
		audio: audio,
		cfg:   cfg,
		log:   logger,
	}
}

// Generate builds one question for s. An archetype is picked uniformly at
// random; if it cannot be built for s the remaining archetypes are tried in
// random order. ok is false when s lacks text in either language or no
// archetype is viable.
func (g *Generator) Generate(s domain.Sentence, corpus []domain.Sentence, learning, known string) (Question, bool) {
	if !s.HasPair(learning, known) {
		return nil, false
	}

	kinds := slices.Clone(Kinds)
	g.rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
	for _, k := range kinds {
		if q, ok := g.build(k, s, corpus, learning, known); ok {
			return q, true
		}
	}
	return nil, false
}

func (g *Generator) build(k Kind, s domain.Sentence, corpus []domain.Sentence, learning, known string) (Question, bool) {
	switch k {
	case PuzzleToTranslation:
		return g.puzzle(s, corpus, learning, known, false)
	case PuzzleToTarget:
		return g.puzzle(s, corpus, known, learning, true)
	case FillBlankKind:
		return g.fillBlank(s, corpus, learning, known)
	case AudioKind:
		return g.audioRecognition(s, corpus, learning, known)
	}
	return nil, false
}

func (g *Generator) puzzle(s domain.Sentence, corpus []domain.Sentence, from, to string, toTarget bool) (Question, bool) {
	prompt, _ := s.Text(from)
	ans, _ := s.Text(to)

	pieces := token.Tokenize(ans)
	if len(pieces) < 2 || !answer.IsCorrect(pieces, ans) {
		return nil, false
	}
	decoys := g.pool.PuzzleDecoys(pieces, otherTexts(corpus, s.ID, to), utf8.RuneCountInString(ans))

	all := append(slices.Clone(pieces), decoys...)
	g.shuffle(all)
	return &Puzzle{
		Header:     Header{SentenceID: s.ID, Prompt: prompt, Answer: ans},
		ToTarget:   toTarget,
		FromLang:   from,
		ToLang:     to,
		Pieces:     all,
		DecoyCount: len(decoys),
	}, true
}

func (g *Generator) fillBlank(s domain.Sentence, corpus []domain.Sentence, learning, known string) (Question, bool) {
	text, _ := s.Text(learning)
	translation, _ := s.Text(known)

	word, at, ok := g.pickBlankWord(text)
	if !ok {
		return nil, false
	}
	decoys := g.pool.TokenDistractors(word, otherTexts(corpus, s.ID, learning), g.cfg.BlankDecoys)
	if len(decoys) == 0 {
		return nil, false
	}
	choices, idx := g.withAnswer(decoys, word)
	return &FillBlank{
		Header:       Header{SentenceID: s.ID, Prompt: text[:at] + Blank + text[at+len(word):], Answer: word},
		Translation:  translation,
		Choices:      choices,
		CorrectIndex: idx,
	}, true
}

func (g *Generator) audioRecognition(s domain.Sentence, corpus []domain.Sentence, learning, known string) (Question, bool) {
	if g.audio == nil {
		return nil, false
	}
	handle, ok := g.audio.Resolve(s.ID, learning)
	if !ok {
		return nil, false
	}
	text, _ := s.Text(learning)
	translation, _ := s.Text(known)

	decoys := g.pool.SentenceDistractors(s, learning, corpus, g.cfg.AudioDecoys)
	if len(decoys) == 0 {
		return nil, false
	}
	choices, idx := g.withAnswer(decoys, text)
	return &AudioRecognition{
		Header:       Header{SentenceID: s.ID, Prompt: handle, Answer: text},
		Translation:  translation,
		Choices:      choices,
		CorrectIndex: idx,
	}, true
}

// blankWord is a word of a sentence and its byte offset in the sentence.
type blankWord struct {
	text string
	at   int
}

// pickBlankWord chooses the word to hide: one of the longest words over three
// characters, or any word when none is that long. It returns the word and its
// byte offset in text.
func (g *Generator) pickBlankWord(text string) (string, int, bool) {
	var words, long []blankWord
	pos := 0
	for _, p := range token.Tokenize(text) {
		i := strings.Index(text[pos:], p)
		if i < 0 {
			continue
		}
		start := pos + i
		pos = start + len(p)

		w := strings.TrimLeftFunc(p, script.IsPunct)
		lead := len(p) - len(w)
		w = strings.TrimRightFunc(w, script.IsPunct)
		if w == "" {
			continue
		}
		bw := blankWord{text: w, at: start + lead}
		words = append(words, bw)
		if utf8.RuneCountInString(w) > 3 {
			long = append(long, bw)
		}
	}
	if len(words) == 0 {
		return "", 0, false
	}
	pick := words
	if len(long) > 0 {
		slices.SortStableFunc(long, func(a, b blankWord) int {
			return cmp.Compare(utf8.RuneCountInString(b.text), utf8.RuneCountInString(a.text))
		})
		pick = long[:min(blankCandidates, len(long))]
	}
	w := pick[g.rng.IntN(len(pick))]
	return w.text, w.at, true
}

// withAnswer shuffles the correct answer in with the decoys and returns the
// choices with the answer's index.
func (g *Generator) withAnswer(decoys []string, correct string) ([]string, int) {
	choices := append(slices.Clone(decoys), correct)
	g.shuffle(choices)
	return choices, slices.Index(choices, correct)
}

func (g *Generator) shuffle(s []string) {
	g.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// otherTexts returns the lang text of every corpus sentence except id.
func otherTexts(corpus []domain.Sentence, id int64, lang string) []string {
	var out []string
	for _, s := range corpus {
		if s.ID == id {
			continue
		}
		if t, ok := s.Text(lang); ok {
			out = append(out, t)
		}
	}
	return out
}
