package main

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/practice"
	"github.com/conorfennell/phrasedrill/internal/quiz"
)

func scanner(lines ...string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestPlayQuiz(t *testing.T) {
	session, err := quiz.NewSession([]quiz.Question{
		&quiz.Puzzle{
			Header:   quiz.Header{SentenceID: 1, Prompt: "Hola mundo", Answer: "Hello world"},
			FromLang: "es",
			ToLang:   "en",
			Pieces:   []string{"world", "Hello", "cat"},
		},
		&quiz.FillBlank{
			Header:      quiz.Header{SentenceID: 2, Prompt: "Me gusta el ____", Answer: "café"},
			Translation: "I like coffee",
			Choices:     []string{"pan", "café"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	err = playQuiz(scanner("2 9", "2 1", "x", "1"), &out, session)
	if err != nil {
		t.Fatalf("playQuiz() returned an unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Question 1/2",
		"[3] cat",
		`no piece "9", try again.`,
		"Correct!",
		`not a number: "x", try again.`,
		"The answer is: café",
		"Score: 1/2 (50%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output is missing %q:\n%s", want, got)
		}
	}
}

func TestPlayQuizInputClosed(t *testing.T) {
	session, err := quiz.NewSession([]quiz.Question{
		&quiz.FillBlank{Header: quiz.Header{Answer: "a"}, Choices: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := playQuiz(bufio.NewScanner(strings.NewReader("")), &out, session); !errors.Is(err, errQuit) {
		t.Errorf("playQuiz() error = %v, want errQuit", err)
	}
}

func TestPickPieces(t *testing.T) {
	pieces := []string{"a", "b", "c"}
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"3 1", []string{"c", "a"}, false},
		{" 2  2 ", []string{"b", "b"}, false},
		{"", nil, true},
		{"0", nil, true},
		{"4", nil, true},
		{"b", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := pickPieces(tt.line, pieces)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pickPieces(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("pickPieces(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestReviewItems(t *testing.T) {
	items := []practice.DueItem{
		{ID: 1, Sentence: domain.Sentence{ID: 1, Texts: map[string]string{"es": "Hola.", "en": "Hello."}}},
		{ID: 7},
		{ID: 2, Sentence: domain.Sentence{ID: 2, Texts: map[string]string{"es": "Adiós.", "en": "Bye."}}},
	}
	recorded := map[int64]bool{}
	record := func(id int64, known bool) (domain.ReviewCard, error) {
		recorded[id] = known
		return domain.ReviewCard{SentenceID: id, NextReviewAt: time.Now().Add(time.Hour)}, nil
	}

	var out strings.Builder
	err := reviewItems(scanner("", "Y", "", "maybe", "n"), &out, items, "es", "en", record)
	if err != nil {
		t.Fatalf("reviewItems() returned an unexpected error: %v", err)
	}
	if len(recorded) != 2 || !recorded[1] || recorded[2] {
		t.Errorf("recorded = %v, want 1 known and 2 unknown", recorded)
	}
	got := out.String()
	for _, want := range []string{"Skipping 7", "Hello.", "Please answer y or n", "Reviewed 2, knew 1."} {
		if !strings.Contains(got, want) {
			t.Errorf("output is missing %q:\n%s", want, got)
		}
	}
}

func TestReviewItemsNothingDue(t *testing.T) {
	var out strings.Builder
	err := reviewItems(scanner(), &out, nil, "es", "en", func(int64, bool) (domain.ReviewCard, error) {
		t.Fatal("record should not be called")
		return domain.ReviewCard{}, nil
	})
	if err != nil || !strings.Contains(out.String(), "Nothing due") {
		t.Errorf("reviewItems() = %v, output %q", err, out.String())
	}
}
