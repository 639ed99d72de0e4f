package quiz

import "errors"

// Sentinel errors returned by Session. Use errors.Is to check them.
var (
	ErrEmptyQuiz         = errors.New("quiz: no questions")
	ErrNotAwaitingAnswer = errors.New("quiz: not awaiting an answer")
	ErrNotInFeedback     = errors.New("quiz: current question has not been answered")
	ErrComplete          = errors.New("quiz: session is complete")
	ErrNotComplete       = errors.New("quiz: session is not complete")
	ErrWrongAnswerKind   = errors.New("quiz: answer kind does not match question")
	ErrInvalidChoice     = errors.New("quiz: choice index out of range")
)
