package domain

// Sentence is one corpus entry: the same sentence in several languages.
type Sentence struct {
	ID     int64
	Texts  map[string]string // language code -> text
	Topics []string
}

// Text returns the sentence text in lang, or false when the sentence
// has no (non-empty) text for that language.
func (s Sentence) Text(lang string) (string, bool) {
	t, ok := s.Texts[lang]
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// HasPair reports whether the sentence carries text in both languages.
func (s Sentence) HasPair(learning, known string) bool {
	_, okL := s.Text(learning)
	_, okK := s.Text(known)
	return okL && okK
}
