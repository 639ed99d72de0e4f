package domain

import "time"

// ReviewCard is the review state of one saved sentence.
// A saved sentence without a card is new and due immediately.
type ReviewCard struct {
	SentenceID   int64
	IntervalRank int // index into the review ladder
	NextReviewAt time.Time
	Difficulty   int // 0 (easy) .. 2 (hard), informational only
	LastReview   time.Time
}

// ReviewLog records a single review outcome for a sentence.
type ReviewLog struct {
	SentenceID int64
	Timestamp  time.Time
	Known      bool
}
