package script

import "testing"

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		r    rune
		want Class
	}{
		{"hiragana a", 'あ', Hiragana},
		{"hiragana upper bound", 0x309F, Hiragana},
		{"katakana ka", 'カ', Katakana},
		{"katakana long vowel mark", 'ー', Katakana},
		{"kanji", '日', Han},
		{"kanji upper bound", 0x9FAF, Han},
		{"ideographic full stop", '。', CJKPunctuation},
		{"ideographic comma", '、', CJKPunctuation},
		{"latin letter", 'a', ASCII},
		{"space", ' ', ASCII},
		{"tilde", '~', ASCII},
		{"delete", 0x7F, ASCII},
		{"tab", '\t', Other},
		{"accented latin", 'é', Other},
		{"cyrillic", 'ж', Other},
		{"fullwidth exclamation", '！', Other},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.r); got != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.r, got, tc.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !ContainsCJK("Hello 世界") {
		t.Error("expected ContainsCJK to find Han characters")
	}
	if ContainsCJK("Hello, world!") {
		t.Error("expected no CJK in Latin text")
	}
	if ContainsCJK("。、") {
		t.Error("CJK punctuation alone is not CJK text")
	}

	punct := map[string]bool{",": true, "!?": true, "。": true, "！": true, "a": false, "": false, "a.": false}
	for s, want := range punct {
		if got := IsPunctOnly(s); got != want {
			t.Errorf("IsPunctOnly(%q) = %v, want %v", s, got, want)
		}
	}

	if !IsASCIIOnly("John") || IsASCIIOnly("café") || IsASCIIOnly("") {
		t.Error("IsASCIIOnly returned an unexpected result")
	}
	if IsPunct(0x3000) {
		t.Error("ideographic space must not count as punctuation")
	}
}
