// Package web serves the practice API over HTTP as JSON.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/phrasedrill/internal/practice"
	"github.com/conorfennell/phrasedrill/internal/quiz"
	"github.com/conorfennell/phrasedrill/internal/storage"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	svc      *practice.Service
	router   *http.ServeMux
	validate *validator.Validate
	logger   *slog.Logger

	now      func() time.Time
	mu       stdsync.Mutex
	sessions map[string]*liveSession
}

// sessionIdleTimeout is how long an untouched quiz session is kept before it
// is dropped.
const sessionIdleTimeout = 2 * time.Hour

type liveSession struct {
	sess     *quiz.Session
	lastUsed time.Time
}

// NewServer creates and configures a new server.
func NewServer(svc *practice.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		svc:      svc,
		router:   http.NewServeMux(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("POST /quiz", s.entitled(s.handleStartQuiz))
	s.router.HandleFunc("GET /quiz/{session}", s.entitled(s.handleGetQuiz))
	s.router.HandleFunc("POST /quiz/{session}/answer", s.entitled(s.handleAnswer))
	s.router.HandleFunc("POST /quiz/{session}/next", s.entitled(s.handleNext))

	s.router.HandleFunc("GET /review/due", s.entitled(s.handleDue))
	s.router.HandleFunc("POST /review/{id}", s.entitled(s.handleReview))

	s.router.HandleFunc("POST /saved/{id}", s.handleSave)
	s.router.HandleFunc("DELETE /saved/{id}", s.handleUnsave)

	s.router.HandleFunc("GET /sources", s.handleGetSources)
	s.router.HandleFunc("POST /sources", s.handlePostSource)
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource)
	s.router.HandleFunc("POST /sync", s.handleSync)
}

// entitled rejects quiz and review requests when the learner is not entitled.
func (s *Server) entitled(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.svc.Options().Entitled {
			writeError(w, http.StatusForbidden, practice.ErrNotEntitled)
			return
		}
		next(w, r)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// internalError logs err and answers with a 500 that does not leak it.
func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return 0, false
	}
	return id, true
}

// Quiz

type questionView struct {
	Kind        string   `json:"kind"`
	SentenceID  int64    `json:"sentence_id"`
	Prompt      string   `json:"prompt"`
	FromLang    string   `json:"from_lang,omitempty"`
	ToLang      string   `json:"to_lang,omitempty"`
	Translation string   `json:"translation,omitempty"`
	Pieces      []string `json:"pieces,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Answer      string   `json:"answer,omitempty"`
}

type resultView struct {
	Score   int `json:"score"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type sessionView struct {
	Session     string        `json:"session"`
	State       string        `json:"state"`
	Index       int           `json:"index"`
	Total       int           `json:"total"`
	Score       int           `json:"score"`
	LastCorrect *bool         `json:"last_correct,omitempty"`
	Question    *questionView `json:"question,omitempty"`
	Result      *resultView   `json:"result,omitempty"`
}

// newQuestionView renders q; the answer is only revealed once reviewed.
func newQuestionView(q quiz.Question, reveal bool) *questionView {
	h := quiz.HeaderOf(q)
	v := &questionView{Kind: q.Kind().String(), SentenceID: h.SentenceID, Prompt: h.Prompt}
	switch q := q.(type) {
	case *quiz.Puzzle:
		v.FromLang, v.ToLang, v.Pieces = q.FromLang, q.ToLang, q.Pieces
	case *quiz.FillBlank:
		v.Translation, v.Choices = q.Translation, q.Choices
	case *quiz.AudioRecognition:
		v.Translation, v.Choices = q.Translation, q.Choices
	}
	if reveal {
		v.Answer = h.Answer
	}
	return v
}

// view must be called with s.mu held.
func view(id string, sess *quiz.Session) sessionView {
	v := sessionView{
		Session: id,
		State:   sess.State().String(),
		Index:   sess.Index(),
		Total:   sess.Total(),
		Score:   sess.Score(),
	}
	if q, ok := sess.Current(); ok {
		feedback := sess.State() == quiz.Feedback
		v.Question = newQuestionView(q, feedback)
		if feedback {
			correct := sess.LastCorrect()
			v.LastCorrect = &correct
		}
	}
	if res, err := sess.Result(); err == nil {
		v.Result = &resultView{Score: res.Score, Total: res.Total, Percent: res.Percent}
	}
	return v
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.NewQuiz()
	switch {
	case errors.Is(err, practice.ErrNotEnoughContent):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.internalError(w, "Error starting quiz", err)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.evictIdle()
	s.sessions[id] = &liveSession{sess: sess, lastUsed: s.now()}
	v := view(id, sess)
	s.mu.Unlock()

	s.logger.Info("Quiz session created", "session", id, "questions", sess.Total())
	writeJSON(w, http.StatusCreated, v)
}

// withSession runs fn on the session named in the path, under the lock. A
// session that reaches Complete is dropped once its final view is written.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*quiz.Session) error) {
	id := r.PathValue("session")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid session id"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIdle()
	live, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	live.lastUsed = s.now()
	if err := fn(live.sess); err != nil {
		writeError(w, sessionErrorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view(id, live.sess))
	if live.sess.State() == quiz.Complete {
		delete(s.sessions, id)
		s.logger.Info("Quiz session finished", "session", id, "score", live.sess.Score())
	}
}

// evictIdle drops sessions untouched for sessionIdleTimeout. Callers hold mu.
func (s *Server) evictIdle() {
	cutoff := s.now().Add(-sessionIdleTimeout)
	for id, live := range s.sessions {
		if live.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			s.logger.Info("Quiz session expired", "session", id)
		}
	}
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, quiz.ErrWrongAnswerKind), errors.Is(err, quiz.ErrInvalidChoice):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(*quiz.Session) error { return nil })
}

type answerRequest struct {
	Pieces []string `json:"pieces" validate:"required_without=Choice,excluded_with=Choice"`
	Choice *int     `json:"choice" validate:"required_without=Pieces,excluded_with=Pieces"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(sess *quiz.Session) error {
		var err error
		if req.Choice != nil {
			_, err = sess.SubmitChoice(*req.Choice)
		} else {
			_, err = sess.SubmitPieces(req.Pieces)
		}
		return err
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *quiz.Session) error { return sess.Advance() })
}

// Review

type cardView struct {
	SentenceID   int64     `json:"sentence_id"`
	IntervalRank int       `json:"interval_rank"`
	Difficulty   int       `json:"difficulty"`
	NextReviewAt time.Time `json:"next_review_at"`
}

type dueView struct {
	ID    int64             `json:"id"`
	Texts map[string]string `json:"texts,omitempty"`
	Card  *cardView         `json:"card,omitempty"`
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Due()
	if err != nil {
		s.internalError(w, "Error getting due items", err)
		return
	}
	out := make([]dueView, 0, len(items))
	for _, it := range items {
		v := dueView{ID: it.ID, Texts: it.Sentence.Texts}
		if c := it.Card; c != nil {
			v.Card = &cardView{c.SentenceID, c.IntervalRank, c.Difficulty, c.NextReviewAt}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

type reviewRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=known unknown"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.svc.Review(id, req.Outcome == "known")
	switch {
	case errors.Is(err, storage.ErrNotSaved):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.internalError(w, "Error recording review", err)
		return
	}
	writeJSON(w, http.StatusOK, cardView{c.SentenceID, c.IntervalRank, c.Difficulty, c.NextReviewAt})
}

// Saved items

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := s.svc.Save(id)
	switch {
	case errors.Is(err, practice.ErrUnknownSentence):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.internalError(w, "Error saving sentence", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUnsave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Unsave(id); err != nil {
		s.internalError(w, "Error unsaving sentence", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sources

type sourceView struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

func newSourceViews(sources []storage.Source) []sourceView {
	out := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		v := sourceView{ID: src.ID, Path: src.Path, Type: string(src.Type)}
		if src.LastScanned.Valid {
			v.LastScanned = &src.LastScanned.Time
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.Sources()
	if err != nil {
		s.internalError(w, "Error getting sources", err)
		return
	}
	writeJSON(w, http.StatusOK, newSourceViews(sources))
}

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.svc.AddSource(req.Path)
	switch {
	case errors.Is(err, storage.ErrSourceExists):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		s.internalError(w, "Error inserting new source", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.RemoveSource(id); err != nil {
		if errors.Is(err, storage.ErrNoSource) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.internalError(w, "Error deleting source", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncView struct {
	Sentences int      `json:"sentences"`
	Orphans   []int64  `json:"orphans"`
	Errors    []string `json:"errors"`
}

// handleSync reloads the corpus in the foreground so the caller waits for it.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Reload(r.Context())
	if err != nil {
		s.internalError(w, "Error syncing corpus", err)
		return
	}
	v := syncView{Sentences: len(s.svc.Corpus()), Orphans: res.Orphans, Errors: []string{}}
	for _, e := range res.Errors {
		v.Errors = append(v.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, v)
}
