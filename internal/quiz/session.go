package quiz

import (
	"github.com/conorfennell/phrasedrill/internal/answer"
)

// State is the position of a Session in its question loop.
type State int

const (
	AwaitingAnswer State = iota
	Feedback
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingAnswer:
		return "awaiting_answer"
	case Feedback:
		return "feedback"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Session walks through a fixed, ordered batch of questions. Every question
// must be answered before advancing; the score only grows.
type Session struct {
	questions   []Question
	index       int
	score       int
	state       State
	lastCorrect bool
}

// Result summarises a completed session.
type Result struct {
	Score   int
	Total   int
	Percent int
}

// NewSession starts a session awaiting an answer to the first question.
func NewSession(questions []Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyQuiz
	}
	return &Session{questions: questions}, nil
}

func (s *Session) State() State { return s.state }
func (s *Session) Index() int   { return s.index }
func (s *Session) Score() int   { return s.score }
func (s *Session) Total() int   { return len(s.questions) }

// LastCorrect reports whether the most recent answer was correct.
func (s *Session) LastCorrect() bool { return s.lastCorrect }

// Current returns the question being answered or reviewed.
// ok is false once the session is complete.
func (s *Session) Current() (Question, bool) {
	if s.state == Complete {
		return nil, false
	}
	return s.questions[s.index], true
}

// SubmitPieces answers the current puzzle with ordered pieces.
func (s *Session) SubmitPieces(pieces []string) (bool, error) {
	q, err := s.awaiting()
	if err != nil {
		return false, err
	}
	p, ok := q.(*Puzzle)
	if !ok {
		return false, ErrWrongAnswerKind
	}
	return s.record(answer.IsCorrect(pieces, p.Answer)), nil
}

// SubmitChoice answers the current multiple-choice question with the index
// of the selected choice.
func (s *Session) SubmitChoice(choice int) (bool, error) {
	q, err := s.awaiting()
	if err != nil {
		return false, err
	}
	var choices []string
	switch q := q.(type) {
	case *FillBlank:
		choices = q.Choices
	case *AudioRecognition:
		choices = q.Choices
	default:
		return false, ErrWrongAnswerKind
	}
	if choice < 0 || choice >= len(choices) {
		return false, ErrInvalidChoice
	}
	return s.record(answer.IsChoiceCorrect(choices[choice], HeaderOf(q).Answer)), nil
}

// Advance moves from feedback to the next question, or completes the session
// after the last one.
func (s *Session) Advance() error {
	switch s.state {
	case Complete:
		return ErrComplete
	case AwaitingAnswer:
		return ErrNotInFeedback
	}
	if s.index+1 == len(s.questions) {
		s.state = Complete
		return nil
	}
	s.index++
	s.state = AwaitingAnswer
	return nil
}

// Result returns the final score once the session is complete.
func (s *Session) Result() (Result, error) {
	if s.state != Complete {
		return Result{}, ErrNotComplete
	}
	total := len(s.questions)
	return Result{Score: s.score, Total: total, Percent: s.score * 100 / total}, nil
}

func (s *Session) awaiting() (Question, error) {
	switch s.state {
	case Complete:
		return nil, ErrComplete
	case Feedback:
		return nil, ErrNotAwaitingAnswer
	}
	return s.questions[s.index], nil
}

func (s *Session) record(correct bool) bool {
	if correct {
		s.score++
	}
	s.lastCorrect = correct
	s.state = Feedback
	return correct
}
