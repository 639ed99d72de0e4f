package quiz

import (
	"github.com/conorfennell/phrasedrill/internal/domain"
)

// GenerateQuiz builds a batch of questions from the saved sentences of
// corpus that have text in both languages. About RecentShare of the batch is
// drawn from recent (recently saved ids) when available; the rest comes from
// the other eligible sentences, topped up from whatever is left. Sentences
// for which no question can be built are skipped, so the batch may be short.
// It is empty when nothing saved is eligible.
func (g *Generator) GenerateQuiz(corpus []domain.Sentence, saved, recent []int64, learning, known string) []Question {
	isSaved := idSet(saved)
	isRecent := idSet(recent)

	var fresh, older []domain.Sentence
	picked := make(map[int64]bool)
	for _, s := range corpus {
		if !isSaved[s.ID] || picked[s.ID] || !s.HasPair(learning, known) {
			continue
		}
		picked[s.ID] = true
		if isRecent[s.ID] {
			fresh = append(fresh, s)
		} else {
			older = append(older, s)
		}
	}
	if len(fresh)+len(older) == 0 {
		return nil
	}

	shuffleSentences(g, fresh)
	shuffleSentences(g, older)

	size := g.cfg.BatchSize
	quota := int(float64(size) * g.cfg.RecentShare)

	selected := make([]domain.Sentence, 0, size)
	n := min(quota, len(fresh))
	selected = append(selected, fresh[:n]...)
	fresh = fresh[n:]

	n = min(size-len(selected), len(older))
	selected = append(selected, older[:n]...)

	n = min(size-len(selected), len(fresh))
	selected = append(selected, fresh[:n]...)

	questions := make([]Question, 0, len(selected))
	for _, s := range selected {
		q, ok := g.Generate(s, corpus, learning, known)
		if !ok {
			g.log.Debug("skipping sentence, no viable question", "sentence_id", s.ID)
			continue
		}
		questions = append(questions, q)
	}
	g.rng.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	return questions
}

func shuffleSentences(g *Generator, s []domain.Sentence) {
	g.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
