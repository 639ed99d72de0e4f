// Package practice ties the corpus, the store, the quiz generator and the
// review scheduler together for one learner. It is shared by the CLI and
// the HTTP server.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	stdsync "sync"
	"time"

	"github.com/conorfennell/phrasedrill/internal/corpus"
	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/gitsource"
	"github.com/conorfennell/phrasedrill/internal/quiz"
	"github.com/conorfennell/phrasedrill/internal/review"
	"github.com/conorfennell/phrasedrill/internal/storage"
	"github.com/conorfennell/phrasedrill/internal/sync"
)

var (
	// ErrNotEntitled is returned when quizzes or reviews are requested
	// without entitlement.
	ErrNotEntitled = errors.New("practice: not entitled")
	// ErrUnknownSentence is returned for ids missing from the loaded corpus.
	ErrUnknownSentence = errors.New("practice: sentence not in corpus")
	// ErrNotEnoughContent is returned when no saved sentence can be quizzed.
	ErrNotEnoughContent = errors.New("practice: not enough saved sentences for a quiz")
)

// Options configure a Service.
type Options struct {
	LearningLang string
	KnownLang    string
	Topic        string
	Entitled     bool
	ReposDir     string
	PruneOrphans bool
	RecentWindow time.Duration
}

// Service is safe for concurrent use.
type Service struct {
	db        *storage.DB
	gen       *quiz.Generator
	scheduler *review.Scheduler
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	genMu stdsync.Mutex // the generator is not safe for concurrent use

	mu     stdsync.RWMutex
	corpus []domain.Sentence
	index  map[int64]domain.Sentence
}

// New creates a Service with an empty corpus; call Reload to fill it.
func New(db *storage.DB, gen *quiz.Generator, scheduler *review.Scheduler, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		db:        db,
		gen:       gen,
		scheduler: scheduler,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		index:     map[int64]domain.Sentence{},
	}
}

// Options returns the options the service was created with.
func (s *Service) Options() Options { return s.opts }

// Reload loads every source and replaces the in-memory corpus, keeping only
// sentences of the configured topic when one is set.
func (s *Service) Reload(ctx context.Context) (*sync.Result, error) {
	res, err := sync.LoadCorpus(ctx, s.db, s.opts.ReposDir, s.opts.PruneOrphans)
	if err != nil {
		return nil, err
	}
	sentences := res.Sentences
	if s.opts.Topic != "" {
		sentences = corpus.ByTopic(sentences, s.opts.Topic)
	}
	sync.SortByID(sentences)

	index := make(map[int64]domain.Sentence, len(sentences))
	for _, sen := range sentences {
		index[sen.ID] = sen
	}
	s.mu.Lock()
	s.corpus = sentences
	s.index = index
	s.mu.Unlock()
	s.logger.Info("corpus ready", "sentences", len(sentences), "topic", s.opts.Topic)
	return res, nil
}

// Corpus returns the loaded sentences ordered by id.
func (s *Service) Corpus() []domain.Sentence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// Sentence looks up a loaded sentence by id.
func (s *Service) Sentence(id int64) (domain.Sentence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sen, ok := s.index[id]
	return sen, ok
}

// Save marks a corpus sentence as saved.
func (s *Service) Save(id int64) error {
	if _, ok := s.Sentence(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSentence, id)
	}
	return s.db.SaveItem(id, s.now())
}

// Unsave removes a sentence from the saved set along with its review card.
func (s *Service) Unsave(id int64) error {
	return s.db.UnsaveItem(id)
}

// NewQuiz builds a question batch from the saved sentences and starts a
// session over it.
func (s *Service) NewQuiz() (*quiz.Session, error) {
	if !s.opts.Entitled {
		return nil, ErrNotEntitled
	}
	saved, err := s.db.SavedIDs()
	if err != nil {
		return nil, err
	}
	recent, err := s.db.RecentIDs(s.now().Add(-s.opts.RecentWindow))
	if err != nil {
		return nil, err
	}
	s.genMu.Lock()
	questions := s.gen.GenerateQuiz(s.Corpus(), saved, recent, s.opts.LearningLang, s.opts.KnownLang)
	s.genMu.Unlock()
	session, err := quiz.NewSession(questions)
	if errors.Is(err, quiz.ErrEmptyQuiz) {
		return nil, ErrNotEnoughContent
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("quiz started", "questions", session.Total(), "saved", len(saved), "recent", len(recent))
	return session, nil
}

// DueItem is a saved sentence awaiting review. Card is nil for sentences
// never reviewed.
type DueItem struct {
	ID       int64
	Sentence domain.Sentence
	Card     *domain.ReviewCard
}

// Due lists the saved sentences due for review, new ones first.
func (s *Service) Due() ([]DueItem, error) {
	if !s.opts.Entitled {
		return nil, ErrNotEntitled
	}
	saved, err := s.db.SavedIDs()
	if err != nil {
		return nil, err
	}
	cards, err := s.db.LoadCards()
	if err != nil {
		return nil, err
	}
	ids := s.scheduler.Due(saved, cards, s.now())
	items := make([]DueItem, 0, len(ids))
	for _, id := range ids {
		item := DueItem{ID: id}
		item.Sentence, _ = s.Sentence(id)
		if c, ok := cards[id]; ok {
			item.Card = &c
		}
		items = append(items, item)
	}
	return items, nil
}

// Upcoming lists cards scheduled after now, soonest first.
func (s *Service) Upcoming() ([]domain.ReviewCard, error) {
	cards, err := s.db.LoadCards()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var upcoming []domain.ReviewCard
	for _, c := range cards {
		if c.NextReviewAt.After(now) {
			upcoming = append(upcoming, c)
		}
	}
	slices.SortFunc(upcoming, review.Compare)
	return upcoming, nil
}

// Review records a known/unknown outcome for a saved sentence, persisting the
// updated card and appending to the review log.
func (s *Service) Review(id int64, known bool) (domain.ReviewCard, error) {
	if !s.opts.Entitled {
		return domain.ReviewCard{}, ErrNotEntitled
	}
	existing, err := s.db.FindCard(id)
	if err != nil {
		return domain.ReviewCard{}, err
	}
	cards := review.Cards{}
	if existing != nil {
		cards[id] = *existing
	}

	now := s.now()
	var card domain.ReviewCard
	if known {
		card = s.scheduler.MarkKnown(id, cards, now)
	} else {
		card = s.scheduler.MarkUnknown(id, cards, now)
	}
	if err := s.db.PutCard(card); err != nil {
		return domain.ReviewCard{}, err
	}
	if err := s.db.InsertReviewLog(domain.ReviewLog{SentenceID: id, Timestamp: now, Known: known}); err != nil {
		return domain.ReviewCard{}, err
	}
	s.logger.Info("review recorded", "id", id, "known", known, "rank", card.IntervalRank, "next", card.NextReviewAt)
	return card, nil
}

// AddSource registers a local directory or git URL as a corpus source.
func (s *Service) AddSource(path string) (int64, error) {
	typ := storage.SourceLocal
	if gitsource.IsGitURL(path) {
		typ = storage.SourceGit
	}
	id, err := s.db.AddSource(path, typ)
	if err != nil {
		return 0, err
	}
	s.logger.Info("source added", "id", id, "type", typ, "path", path)
	return id, nil
}

// Sources lists every configured source.
func (s *Service) Sources() ([]storage.Source, error) {
	return s.db.Sources()
}

// RemoveSource deletes a source. Its sentences leave the corpus on the next
// Reload.
func (s *Service) RemoveSource(id int64) error {
	return s.db.RemoveSource(id)
}
