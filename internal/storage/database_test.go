package storage

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/conorfennell/phrasedrill/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSavedItems(t *testing.T) {
	db := openTestDB(t)

	for i, id := range []int64{3, 1, 2} {
		if err := db.SaveItem(id, t0.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("SaveItem(%d): %v", id, err)
		}
	}
	if err := db.SaveItem(3, t0.Add(10*time.Hour)); err != nil {
		t.Fatalf("re-saving: %v", err)
	}

	ids, err := db.SavedIDs()
	if err != nil {
		t.Fatalf("SavedIDs: %v", err)
	}
	if !slices.Equal(ids, []int64{3, 1, 2}) {
		t.Errorf("SavedIDs() = %v, want [3 1 2]", ids)
	}

	recent, err := db.RecentIDs(t0.Add(30 * time.Minute))
	if err != nil {
		t.Fatalf("RecentIDs: %v", err)
	}
	if !slices.Equal(recent, []int64{2, 1}) {
		t.Errorf("RecentIDs() = %v, want [2 1]", recent)
	}
}

func TestCards(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveItem(7, t0); err != nil {
		t.Fatalf("SaveItem: %v", err)
	}

	card := domain.ReviewCard{SentenceID: 7, IntervalRank: 3, NextReviewAt: t0.Add(24 * time.Hour), Difficulty: 1, LastReview: t0}
	if err := db.PutCard(card); err != nil {
		t.Fatalf("PutCard: %v", err)
	}
	card.IntervalRank = 4
	if err := db.PutCard(card); err != nil {
		t.Fatalf("PutCard update: %v", err)
	}

	got, err := db.FindCard(7)
	if err != nil || got == nil {
		t.Fatalf("FindCard() = %v, %v", got, err)
	}
	if got.IntervalRank != 4 || got.Difficulty != 1 || !got.NextReviewAt.Equal(card.NextReviewAt) || !got.LastReview.Equal(t0) {
		t.Errorf("FindCard() = %+v, want %+v", *got, card)
	}

	cards, err := db.LoadCards()
	if err != nil {
		t.Fatalf("LoadCards: %v", err)
	}
	if len(cards) != 1 || cards[7].IntervalRank != 4 {
		t.Errorf("LoadCards() = %+v", cards)
	}

	t.Run("Missing card", func(t *testing.T) {
		if c, err := db.FindCard(99); c != nil || err != nil {
			t.Errorf("FindCard(99) = %v, %v; want nil, nil", c, err)
		}
	})

	t.Run("Card for unsaved sentence", func(t *testing.T) {
		err := db.PutCard(domain.ReviewCard{SentenceID: 99, NextReviewAt: t0})
		if !errors.Is(err, ErrNotSaved) {
			t.Errorf("expected ErrNotSaved, got %v", err)
		}
	})

	t.Run("Unsave deletes the card", func(t *testing.T) {
		if err := db.UnsaveItem(7); err != nil {
			t.Fatalf("UnsaveItem: %v", err)
		}
		if c, _ := db.FindCard(7); c != nil {
			t.Error("card survived unsaving its sentence")
		}
	})
}

func TestReviewLogs(t *testing.T) {
	db := openTestDB(t)
	for i, known := range []bool{false, true, true} {
		l := domain.ReviewLog{SentenceID: 4, Timestamp: t0.Add(time.Duration(i) * time.Hour), Known: known}
		if err := db.InsertReviewLog(l); err != nil {
			t.Fatalf("InsertReviewLog: %v", err)
		}
	}
	logs, err := db.ReviewLogs(4)
	if err != nil {
		t.Fatalf("ReviewLogs: %v", err)
	}
	if len(logs) != 3 || logs[0].Known || !logs[2].Known {
		t.Errorf("ReviewLogs() = %+v", logs)
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	const url = "https://example.com/corpus.git"

	id, err := db.AddSource(url, SourceGit)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	local, err := db.AddSource("/srv/corpus", SourceLocal)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if _, err := db.AddSource(url, SourceGit); !errors.Is(err, ErrSourceExists) {
		t.Errorf("adding a duplicate path: error = %v, want ErrSourceExists", err)
	}
	if err := db.MarkScanned(id, t0); err != nil {
		t.Fatalf("MarkScanned: %v", err)
	}

	sources, err := db.Sources()
	if err != nil || len(sources) != 2 {
		t.Fatalf("Sources() = %v, %v", sources, err)
	}
	if s := sources[0]; s.Path != url || s.Type != SourceGit || !s.LastScanned.Valid || !s.LastScanned.Time.Equal(t0) {
		t.Errorf("unexpected source %+v", s)
	}
	if s := sources[1]; s.ID != local || s.Type != SourceLocal || s.LastScanned.Valid {
		t.Errorf("unexpected source %+v", s)
	}

	if err := db.RemoveSource(id); err != nil {
		t.Fatalf("RemoveSource: %v", err)
	}
	if err := db.RemoveSource(id); !errors.Is(err, ErrNoSource) {
		t.Errorf("removing twice: error = %v, want ErrNoSource", err)
	}
	if err := db.MarkScanned(id, t0); !errors.Is(err, ErrNoSource) {
		t.Errorf("MarkScanned on a removed source: error = %v, want ErrNoSource", err)
	}
	if sources, _ := db.Sources(); len(sources) != 1 {
		t.Errorf("Sources() after removal = %v, want one", sources)
	}
}
