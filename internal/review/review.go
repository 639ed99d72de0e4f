// Package review schedules spaced-repetition reviews of saved sentences on a
// fixed ladder of intervals.
package review

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/conorfennell/phrasedrill/internal/domain"
)

// ErrInvalidLadder is returned by NewScheduler for an empty or
// non-ascending ladder.
var ErrInvalidLadder = errors.New("review: invalid interval ladder")

// DefaultLadder is the default sequence of review intervals.
var DefaultLadder = []time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	168 * time.Hour,
	336 * time.Hour,
	720 * time.Hour,
}

// DefaultMaxDifficulty is the highest difficulty level; levels run 0..2.
const DefaultMaxDifficulty = 2

// firstKnownRank is where a card starts when its first outcome is "known".
const firstKnownRank = 1

// Cards is the caller-owned card store, keyed by sentence id. The scheduler
// reads and writes it but never persists it.
type Cards map[int64]domain.ReviewCard

// Scheduler moves cards along the interval ladder.
type Scheduler struct {
	ladder        []time.Duration
	maxDifficulty int
}

// NewScheduler returns a Scheduler over ladder. A nil ladder selects
// DefaultLadder; maxDifficulty <= 0 selects DefaultMaxDifficulty.
func NewScheduler(ladder []time.Duration, maxDifficulty int) (*Scheduler, error) {
	if ladder == nil {
		ladder = DefaultLadder
	}
	if len(ladder) == 0 {
		return nil, fmt.Errorf("%w: no rungs", ErrInvalidLadder)
	}
	for i, d := range ladder {
		if d <= 0 {
			return nil, fmt.Errorf("%w: rung %d is %v", ErrInvalidLadder, i, d)
		}
		if i > 0 && d <= ladder[i-1] {
			return nil, fmt.Errorf("%w: rung %d (%v) is not above rung %d (%v)", ErrInvalidLadder, i, d, i-1, ladder[i-1])
		}
	}
	if maxDifficulty <= 0 {
		maxDifficulty = DefaultMaxDifficulty
	}
	return &Scheduler{ladder: slices.Clone(ladder), maxDifficulty: maxDifficulty}, nil
}

// Ladder returns a copy of the interval ladder.
func (s *Scheduler) Ladder() []time.Duration { return slices.Clone(s.ladder) }

// Due returns the saved ids that are due at now: those without a card, and
// those whose NextReviewAt is not after now. Ids without a card come first in
// saved order, followed by the rest by ascending NextReviewAt.
func (s *Scheduler) Due(saved []int64, cards Cards, now time.Time) []int64 {
	var fresh []int64
	var scheduled []domain.ReviewCard
	seen := make(map[int64]bool, len(saved))
	for _, id := range saved {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := cards[id]
		switch {
		case !ok:
			fresh = append(fresh, id)
		case !c.NextReviewAt.After(now):
			scheduled = append(scheduled, c)
		}
	}

	slices.SortStableFunc(scheduled, func(a, b domain.ReviewCard) int {
		return a.NextReviewAt.Compare(b.NextReviewAt)
	})
	for _, c := range scheduled {
		fresh = append(fresh, c.SentenceID)
	}
	return fresh
}

// MarkKnown records a successful review of id at now and returns the updated
// card. An existing card climbs one rung (stopping at the top) and becomes
// easier; a new card starts on the second rung. NextReviewAt never moves
// backwards for a card.
func (s *Scheduler) MarkKnown(id int64, cards Cards, now time.Time) domain.ReviewCard {
	c, ok := cards[id]
	if !ok {
		c = domain.ReviewCard{SentenceID: id, IntervalRank: firstKnownRank}
	} else {
		c.IntervalRank = s.clampRank(c.IntervalRank + 1)
		c.Difficulty = max(0, c.Difficulty-1)
	}
	c.IntervalRank = s.clampRank(c.IntervalRank)

	next := now.Add(s.ladder[c.IntervalRank])
	if next.Before(c.NextReviewAt) {
		next = c.NextReviewAt
	}
	c.NextReviewAt = next
	c.LastReview = now
	cards[id] = c
	return c
}

// MarkUnknown records a failed review of id at now: the card drops to the
// first rung, is due again after the shortest interval and becomes harder.
func (s *Scheduler) MarkUnknown(id int64, cards Cards, now time.Time) domain.ReviewCard {
	c, ok := cards[id]
	if !ok {
		c = domain.ReviewCard{SentenceID: id}
	}
	c.IntervalRank = 0
	c.NextReviewAt = now.Add(s.ladder[0])
	c.Difficulty = min(s.maxDifficulty, max(0, c.Difficulty)+1)
	c.LastReview = now
	cards[id] = c
	return c
}

// Forget drops the card of an un-saved sentence.
func (s *Scheduler) Forget(id int64, cards Cards) {
	delete(cards, id)
}

// clampRank keeps a rank inside the ladder.
func (s *Scheduler) clampRank(rank int) int {
	return min(max(rank, 0), len(s.ladder)-1)
}

// Interval returns the ladder interval for rank, clamped to the ladder.
func (s *Scheduler) Interval(rank int) time.Duration {
	return s.ladder[s.clampRank(rank)]
}

// Compare orders cards by NextReviewAt, for callers listing upcoming reviews.
func Compare(a, b domain.ReviewCard) int {
	return cmp.Or(a.NextReviewAt.Compare(b.NextReviewAt), cmp.Compare(a.SentenceID, b.SentenceID))
}
