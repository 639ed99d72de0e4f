package corpus

import (
	"testing"

	"github.com/conorfennell/phrasedrill/internal/domain"
)

func TestNormalize(t *testing.T) {
	s := domain.Sentence{Texts: map[string]string{
		"ja": "猫が 好き。",
		"en": "  I LIKE cats . ",
	}}
	expected := "en:i like cats.\nja:猫が好き。"
	if got := Normalize(s); got != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, got)
	}
}

func TestFingerprint(t *testing.T) {
	t.Run("Normalization produces same fingerprint", func(t *testing.T) {
		a := domain.Sentence{Texts: map[string]string{"en": "  what is go? "}}
		b := domain.Sentence{ID: 5, Texts: map[string]string{"en": "What Is Go?"}, Topics: []string{"x"}}
		if Fingerprint(a) != Fingerprint(b) {
			t.Error("Expected fingerprints to be the same after normalization, but they were different.")
		}
	})

	t.Run("Different sentences have different fingerprints", func(t *testing.T) {
		a := domain.Sentence{Texts: map[string]string{"en": "Sentence 1"}}
		b := domain.Sentence{Texts: map[string]string{"en": "Sentence 2"}}
		if Fingerprint(a) == Fingerprint(b) {
			t.Error("Expected fingerprints for different sentences to be different")
		}
	})

	t.Run("Fingerprint is positive", func(t *testing.T) {
		for _, text := range []string{"a", "b", "c", "日本語", ""} {
			if id := Fingerprint(domain.Sentence{Texts: map[string]string{"en": text}}); id <= 0 {
				t.Errorf("Fingerprint(%q) = %d", text, id)
			}
		}
	})
}

func TestByTopic(t *testing.T) {
	sentences := []domain.Sentence{
		{ID: 1, Topics: []string{"Travel"}},
		{ID: 2, Topics: []string{"food", "travel"}},
		{ID: 3},
	}
	if got := ByTopic(sentences, "travel"); len(got) != 2 {
		t.Errorf("expected 2 travel sentences, got %d", len(got))
	}
	if got := ByTopic(sentences, ""); len(got) != 3 {
		t.Errorf("expected all sentences for an empty topic, got %d", len(got))
	}
}
