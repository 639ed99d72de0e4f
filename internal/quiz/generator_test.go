package quiz

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/conorfennell/phrasedrill/internal/answer"
	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/token"
)

type fakeAudio struct{}

func (fakeAudio) Resolve(id int64, lang string) (string, bool) {
	return fmt.Sprintf("https://audio.test/%s/%d.mp3", lang, id), true
}

var pairs = [][2]string{
	{"La biblioteca está cerca de la estación.", "The library is near the station."},
	{"Me gusta beber café por la mañana.", "I like to drink coffee in the morning."},
	{"¿Dónde está el baño?", "Where is the bathroom?"},
	{"Mi hermano toca la guitarra.", "My brother plays the guitar."},
	{"Hace mucho calor hoy.", "It is very hot today."},
	{"Cierra la ventana, por favor.", "Close the window, please."},
	{"El jardín necesita agua.", "The garden needs water."},
	{"Caminamos junto al río.", "We walked along the river."},
	{"Los niños juegan en el parque.", "The children play in the park."},
	{"Quiero aprender japonés.", "I want to learn Japanese."},
	{"猫が好きです。", "I like cats."},
	{"Hola", "Hello"},
}

func testCorpus() []domain.Sentence {
	out := make([]domain.Sentence, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Sentence{ID: int64(i + 1), Texts: map[string]string{"es": p[0], "en": p[1]}}
	}
	return out
}

func newGenerator(seed uint64, audio AudioResolver) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x5eed)), audio, Config{}, nil)
}

func countOf(items []string, s string) int {
	n := 0
	for _, it := range items {
		if it == s {
			n++
		}
	}
	return n
}

func checkQuestion(t *testing.T, q Question, s domain.Sentence) {
	t.Helper()
	h := HeaderOf(q)
	if h.SentenceID != s.ID {
		t.Errorf("SentenceID = %d, want %d", h.SentenceID, s.ID)
	}

	switch q := q.(type) {
	case *Puzzle:
		want, _ := s.Text(q.ToLang)
		if q.Answer != want {
			t.Errorf("puzzle answer = %q, want %q", q.Answer, want)
		}
		checkAnswerable(t, q)
		answerPieces := token.Tokenize(q.Answer)
		rest := slices.Clone(q.Pieces)
		for _, pc := range answerPieces {
			i := slices.Index(rest, pc)
			if i < 0 {
				t.Fatalf("answer piece %q missing from %q", pc, q.Pieces)
			}
			rest = slices.Delete(rest, i, i+1)
		}
		if len(rest) != q.DecoyCount {
			t.Errorf("DecoyCount = %d, but %d extra pieces", q.DecoyCount, len(rest))
		}
		if !answer.IsCorrect(answerPieces, q.Answer) {
			t.Errorf("answer pieces %q do not rebuild %q", answerPieces, q.Answer)
		}
		for _, d := range rest {
			if answer.Normalize(d) == answer.Normalize(q.Answer) {
				t.Errorf("decoy %q equals the answer", d)
			}
		}
	case *FillBlank:
		checkChoices(t, q.Choices, q.CorrectIndex, q.Answer, 3)
		text, _ := s.Text("es")
		if !strings.Contains(q.Prompt, Blank) {
			t.Errorf("prompt %q has no blank", q.Prompt)
		}
		if got := strings.Replace(q.Prompt, Blank, q.Answer, 1); got != text {
			t.Errorf("filling the blank gives %q, want %q", got, text)
		}
	case *AudioRecognition:
		text, _ := s.Text("es")
		if q.Answer != text {
			t.Errorf("audio answer = %q, want %q", q.Answer, text)
		}
		if !strings.HasPrefix(q.Prompt, "https://audio.test/es/") {
			t.Errorf("prompt %q is not the audio handle", q.Prompt)
		}
		checkChoices(t, q.Choices, q.CorrectIndex, q.Answer, 4)
	default:
		t.Fatalf("unexpected question type %T", q)
	}
}

func checkChoices(t *testing.T, choices []string, idx int, correct string, maxLen int) {
	t.Helper()
	if len(choices) < 2 || len(choices) > maxLen {
		t.Errorf("got %d choices, want 2..%d", len(choices), maxLen)
	}
	if n := countOf(choices, correct); n != 1 {
		t.Errorf("correct answer %q appears %d times in %q", correct, n, choices)
	}
	if idx < 0 || idx >= len(choices) || choices[idx] != correct {
		t.Errorf("CorrectIndex %d does not point at %q in %q", idx, correct, choices)
	}
}

func TestGenerateProperties(t *testing.T) {
	corpus := testCorpus()
	seen := make(map[Kind]int)
	for seed := uint64(0); seed < 100; seed++ {
		g := newGenerator(seed, fakeAudio{})
		for _, s := range corpus {
			q, ok := g.Generate(s, corpus, "es", "en")
			if !ok {
				t.Fatalf("seed %d: no question for sentence %d", seed, s.ID)
			}
			seen[q.Kind()]++
			checkQuestion(t, q, s)
		}
	}
	for _, k := range Kinds {
		if seen[k] == 0 {
			t.Errorf("archetype %v was never generated", k)
		}
	}
}

func TestGenerateMissingText(t *testing.T) {
	corpus := testCorpus()
	s := domain.Sentence{ID: 99, Texts: map[string]string{"es": "Solo español."}}
	if _, ok := newGenerator(1, fakeAudio{}).Generate(s, corpus, "es", "en"); ok {
		t.Error("expected no question for a sentence without a translation")
	}
}

func TestGenerateWithoutAudio(t *testing.T) {
	corpus := testCorpus()
	for seed := uint64(0); seed < 30; seed++ {
		g := newGenerator(seed, nil)
		for _, s := range corpus {
			q, ok := g.Generate(s, corpus, "es", "en")
			if ok && q.Kind() == AudioKind {
				t.Fatalf("seed %d: audio question without a resolver", seed)
			}
		}
	}
}

func TestGenerateFallsBackFromDegeneratePuzzle(t *testing.T) {
	corpus := testCorpus()
	hola := corpus[len(corpus)-1]
	for seed := uint64(0); seed < 30; seed++ {
		q, ok := newGenerator(seed, nil).Generate(hola, corpus, "es", "en")
		if !ok {
			t.Fatalf("seed %d: expected a fill-in-the-blank question", seed)
		}
		if q.Kind() != FillBlankKind {
			t.Fatalf("seed %d: got %v, want fill_blank for a one-word sentence", seed, q.Kind())
		}
	}
}

func TestGenerateSkipsUnanswerablePuzzle(t *testing.T) {
	corpus := testCorpus()
	// The comma hugs the next word, but the pieces rejoin as "Hola, mundo".
	s := domain.Sentence{ID: 50, Texts: map[string]string{"es": "Hola ,mundo です", "en": "Hello world"}}
	if pieces := token.Tokenize(s.Texts["es"]); answer.IsCorrect(pieces, s.Texts["es"]) {
		t.Fatalf("pieces %q unexpectedly rebuild the sentence", pieces)
	}
	for seed := uint64(0); seed < 50; seed++ {
		q, ok := newGenerator(seed, nil).Generate(s, corpus, "es", "en")
		if !ok {
			t.Fatalf("seed %d: expected a fallback question", seed)
		}
		if q.Kind() == PuzzleToTarget {
			t.Fatalf("seed %d: built a puzzle whose own pieces are marked wrong", seed)
		}
		if p, isPuzzle := q.(*Puzzle); isPuzzle {
			checkAnswerable(t, p)
		}
	}
}

func checkAnswerable(t *testing.T, p *Puzzle) {
	t.Helper()
	if pieces := token.Tokenize(p.Answer); !answer.IsCorrect(pieces, p.Answer) {
		t.Errorf("puzzle answer %q cannot be assembled from %q", p.Answer, pieces)
	}
}

func TestPickBlankWord(t *testing.T) {
	t.Run("Prefers the longest words", func(t *testing.T) {
		allowed := []string{"biblioteca", "estación", "cerca"}
		for seed := uint64(0); seed < 30; seed++ {
			w, _, ok := newGenerator(seed, nil).pickBlankWord("La biblioteca está cerca de la estación.")
			if !ok || !slices.Contains(allowed, w) {
				t.Errorf("seed %d: picked %q, want one of %v", seed, w, allowed)
			}
		}
	})

	t.Run("Falls back to any word", func(t *testing.T) {
		for seed := uint64(0); seed < 10; seed++ {
			w, _, ok := newGenerator(seed, nil).pickBlankWord("Yo soy.")
			if !ok || (w != "Yo" && w != "soy") {
				t.Errorf("seed %d: picked %q", seed, w)
			}
		}
	})

	t.Run("Offset is the word's own position", func(t *testing.T) {
		const text = "Oso y so."
		want := map[string]int{"Oso": 0, "y": 4, "so": 6}
		for seed := uint64(0); seed < 30; seed++ {
			w, at, ok := newGenerator(seed, nil).pickBlankWord(text)
			if !ok || want[w] != at || text[at:at+len(w)] != w {
				t.Errorf("seed %d: picked %q at %d", seed, w, at)
			}
		}
	})

	t.Run("Nothing to pick", func(t *testing.T) {
		if _, _, ok := newGenerator(1, nil).pickBlankWord("?!"); ok {
			t.Error("expected no word in punctuation-only text")
		}
	})
}
