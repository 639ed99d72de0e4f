package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/practice"
	"github.com/conorfennell/phrasedrill/internal/quiz"
)

// errQuit is returned when the input ends before the learner is done.
var errQuit = errors.New("input closed")

// upcomingShown caps the upcoming list printed by due.
const upcomingShown = 5

func printDue(out io.Writer, svc *practice.Service, learning string) error {
	items, err := svc.Due()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d sentences due.\n", len(items))
	for _, it := range items {
		text, _ := it.Sentence.Text(learning)
		status := "new"
		if it.Card != nil {
			status = "rank " + strconv.Itoa(it.Card.IntervalRank)
		}
		fmt.Fprintf(out, "  %6d  %-8s %s\n", it.ID, status, text)
	}

	upcoming, err := svc.Upcoming()
	if err != nil {
		return err
	}
	if len(upcoming) > 0 {
		fmt.Fprintln(out, "\nComing up:")
	}
	for _, c := range upcoming[:min(len(upcoming), upcomingShown)] {
		fmt.Fprintf(out, "  %6d  %s\n", c.SentenceID, c.NextReviewAt.Local().Format(time.DateTime))
	}
	return nil
}

func runQuiz(in io.Reader, out io.Writer, svc *practice.Service) error {
	session, err := svc.NewQuiz()
	if err != nil {
		return err
	}
	return playQuiz(bufio.NewScanner(in), out, session)
}

// playQuiz asks every question of session on out, reading answers from sc.
func playQuiz(sc *bufio.Scanner, out io.Writer, session *quiz.Session) error {
	for {
		q, ok := session.Current()
		if !ok {
			break
		}
		fmt.Fprintf(out, "\nQuestion %d/%d\n", session.Index()+1, session.Total())

		var correct bool
		for {
			var err error
			correct, err = ask(sc, out, session, q)
			if err == nil {
				break
			}
			if errors.Is(err, errQuit) {
				return err
			}
			fmt.Fprintf(out, "%v, try again.\n", err)
		}

		if correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Not quite. The answer is: %s\n", quiz.HeaderOf(q).Answer)
		}
		if err := session.Advance(); err != nil {
			return err
		}
	}

	res, err := session.Result()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nScore: %d/%d (%d%%)\n", res.Score, res.Total, res.Percent)
	return nil
}

func ask(sc *bufio.Scanner, out io.Writer, session *quiz.Session, q quiz.Question) (bool, error) {
	switch q := q.(type) {
	case *quiz.Puzzle:
		fmt.Fprintf(out, "Translate into %s: %s\n", q.ToLang, q.Prompt)
		for i, p := range q.Pieces {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, p)
		}
		fmt.Fprint(out, "Pieces in order (e.g. 3 1 2): ")
		line, err := readLine(sc)
		if err != nil {
			return false, err
		}
		pieces, err := pickPieces(line, q.Pieces)
		if err != nil {
			return false, err
		}
		return session.SubmitPieces(pieces)
	case *quiz.FillBlank:
		fmt.Fprintf(out, "%s\n(%s)\n", q.Prompt, q.Translation)
		return askChoice(sc, out, session, q.Choices)
	case *quiz.AudioRecognition:
		fmt.Fprintf(out, "Listen: %s\n(%s)\n", q.Prompt, q.Translation)
		return askChoice(sc, out, session, q.Choices)
	}
	return false, fmt.Errorf("unsupported question kind %s", q.Kind())
}

func askChoice(sc *bufio.Scanner, out io.Writer, session *quiz.Session, choices []string) (bool, error) {
	for i, c := range choices {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, c)
	}
	fmt.Fprint(out, "Choice: ")
	line, err := readLine(sc)
	if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return false, fmt.Errorf("not a number: %q", line)
	}
	return session.SubmitChoice(n - 1)
}

// pickPieces turns 1-based indices into the pieces they name.
func pickPieces(line string, pieces []string) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("no pieces given")
	}
	picked := make([]string, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(pieces) {
			return nil, fmt.Errorf("no piece %q", f)
		}
		picked = append(picked, pieces[n-1])
	}
	return picked, nil
}

func readLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(sc.Text()), nil
}

func runReview(in io.Reader, out io.Writer, svc *practice.Service, learning, known string) error {
	items, err := svc.Due()
	if err != nil {
		return err
	}
	return reviewItems(bufio.NewScanner(in), out, items, learning, known, svc.Review)
}

// reviewItems shows each due sentence, reveals its translation and records
// the learner's y/n verdict through record.
func reviewItems(sc *bufio.Scanner, out io.Writer, items []practice.DueItem, learning, known string,
	record func(id int64, known bool) (domain.ReviewCard, error)) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "Nothing due. Come back later.")
		return nil
	}
	var reviewed, knownCount int
	for i, it := range items {
		front, ok := it.Sentence.Text(learning)
		if !ok {
			fmt.Fprintf(out, "Skipping %d: not in the corpus.\n", it.ID)
			continue
		}
		back, _ := it.Sentence.Text(known)
		fmt.Fprintf(out, "\n(%d/%d) %s\n", i+1, len(items), front)
		fmt.Fprint(out, "Press enter to reveal.")
		if _, err := readLine(sc); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\nDid you know it? [y/n]: ", back)

		var knew bool
		for {
			line, err := readLine(sc)
			if err != nil {
				return err
			}
			answer := strings.ToLower(line)
			if answer == "y" || answer == "n" {
				knew = answer == "y"
				break
			}
			fmt.Fprint(out, "Please answer y or n: ")
		}

		card, err := record(it.ID, knew)
		if err != nil {
			return err
		}
		reviewed++
		if knew {
			knownCount++
		}
		fmt.Fprintf(out, "Next review %s.\n", card.NextReviewAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(out, "\nReviewed %d, knew %d.\n", reviewed, knownCount)
	return nil
}
