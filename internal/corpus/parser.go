package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/conorfennell/phrasedrill/internal/domain"
)

const (
	idPrefix    = "ID:"
	topicPrefix = "T:"
	separator   = "---"
)

// ErrMissingText is reported for a record that has an id or topics but no
// text in any language.
var ErrMissingText = errors.New("corpus: record has no text")

// langLine matches "en: text", "ja: text" or "pt-BR: text".
var langLine = regexp.MustCompile(`^([a-z]{2,3}(?:-[A-Z]{2})?):\s?(.*)$`)

type state int

const (
	seeking state = iota
	readingRecord
)

// ParseFile reads the file at path and extracts its sentences.
func ParseFile(path string) ([]domain.Sentence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads sentence records from r. Records are separated by "---" lines
// and consist of "ID:", "T:" and "<lang>:" lines; anything else is ignored.
// Records without an ID get one derived from their text. Malformed records
// are skipped and reported in the returned error, alongside the sentences
// that did parse.
func Parse(r io.Reader) ([]domain.Sentence, error) {
	scanner := bufio.NewScanner(r)
	var (
		sentences []domain.Sentence
		errs      []error
		current   domain.Sentence
		hasID     bool
		badID     bool
		line      int
		start     int
	)
	seen := make(map[int64]int)
	currentState := seeking

	reset := func() {
		current = domain.Sentence{}
		hasID, badID = false, false
		currentState = seeking
	}
	finishRecord := func() {
		defer reset()
		if currentState == seeking || badID {
			return
		}
		if len(current.Texts) == 0 {
			errs = append(errs, fmt.Errorf("line %d: %w", start, ErrMissingText))
			return
		}
		if !hasID {
			current.ID = Fingerprint(current)
		}
		if first, dup := seen[current.ID]; dup {
			errs = append(errs, fmt.Errorf("line %d: duplicate id %d (first at line %d)", start, current.ID, first))
			return
		}
		seen[current.ID] = start
		sentences = append(sentences, current)
	}
	begin := func() {
		if currentState == seeking {
			currentState = readingRecord
			start = line
		}
	}

	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), " \t\r")

		switch {
		case text == separator:
			finishRecord()

		case strings.HasPrefix(text, idPrefix):
			if hasID || badID {
				// A second ID line starts a new record.
				finishRecord()
			}
			begin()
			id, err := strconv.ParseInt(strings.TrimSpace(text[len(idPrefix):]), 10, 64)
			if err != nil || id <= 0 {
				errs = append(errs, fmt.Errorf("line %d: invalid id %q", line, text[len(idPrefix):]))
				badID = true
				continue
			}
			current.ID = id
			hasID = true

		case strings.HasPrefix(text, topicPrefix):
			begin()
			for _, t := range strings.Split(text[len(topicPrefix):], ",") {
				if t = strings.TrimSpace(t); t != "" {
					current.Topics = append(current.Topics, t)
				}
			}

		default:
			m := langLine.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			content := strings.TrimSpace(m[2])
			if content == "" {
				continue
			}
			begin()
			if current.Texts == nil {
				current.Texts = make(map[string]string)
			}
			current.Texts[m[1]] = content
		}
	}

	finishRecord() // Finish the very last record in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, errors.Join(errs...)
}
