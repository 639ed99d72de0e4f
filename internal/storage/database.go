package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/phrasedrill/internal/domain"
	"modernc.org/sqlite" // Registers the sqlite driver
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotSaved is returned when a review outcome is stored for a sentence
// that is not saved.
var ErrNotSaved = errors.New("storage: sentence is not saved")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Foreign keys are per connection in sqlite; a single connection keeps
	// the pragma in force and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveItem marks a sentence as saved. Saving an already saved sentence keeps
// its original saved time.
func (db *DB) SaveItem(sentenceID int64, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO saved_items (sentence_id, saved_at)
		VALUES (?, ?)
		ON CONFLICT(sentence_id) DO NOTHING
	`, sentenceID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to save sentence %d: %w", sentenceID, err)
	}
	return nil
}

// UnsaveItem removes a sentence from the saved set, together with its review card.
func (db *DB) UnsaveItem(sentenceID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM saved_items WHERE sentence_id = ?`, sentenceID); err != nil {
		return fmt.Errorf("failed to unsave sentence %d: %w", sentenceID, err)
	}
	return nil
}

// SavedIDs returns every saved sentence id, oldest first.
func (db *DB) SavedIDs() ([]int64, error) {
	return db.queryIDs(`SELECT sentence_id FROM saved_items ORDER BY saved_at, sentence_id`)
}

// RecentIDs returns the ids saved at or after since, newest first.
func (db *DB) RecentIDs(since time.Time) ([]int64, error) {
	return db.queryIDs(`
		SELECT sentence_id FROM saved_items
		WHERE saved_at >= ?
		ORDER BY saved_at DESC, sentence_id
	`, since.UTC())
}

func (db *DB) queryIDs(query string, args ...any) ([]int64, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan saved item row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadCards returns every review card keyed by sentence id.
func (db *DB) LoadCards() (map[int64]domain.ReviewCard, error) {
	rows, err := db.conn.Query(`
		SELECT sentence_id, interval_rank, next_review_at, difficulty, last_review
		FROM review_cards
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load review cards: %w", err)
	}
	defer rows.Close()

	cards := make(map[int64]domain.ReviewCard)
	for rows.Next() {
		var (
			c    domain.ReviewCard
			last sql.NullTime
		)
		if err := rows.Scan(&c.SentenceID, &c.IntervalRank, &c.NextReviewAt, &c.Difficulty, &last); err != nil {
			return nil, fmt.Errorf("failed to scan review card row: %w", err)
		}
		c.LastReview = last.Time
		cards[c.SentenceID] = c
	}
	return cards, rows.Err()
}

// FindCard retrieves the review card of a sentence, or nil if it has none.
func (db *DB) FindCard(sentenceID int64) (*domain.ReviewCard, error) {
	var (
		c    domain.ReviewCard
		last sql.NullTime
	)
	row := db.conn.QueryRow(`
		SELECT sentence_id, interval_rank, next_review_at, difficulty, last_review
		FROM review_cards WHERE sentence_id = ?
	`, sentenceID)
	err := row.Scan(&c.SentenceID, &c.IntervalRank, &c.NextReviewAt, &c.Difficulty, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find review card %d: %w", sentenceID, err)
	}
	c.LastReview = last.Time
	return &c, nil
}

// PutCard inserts or replaces the review card of a saved sentence.
func (db *DB) PutCard(c domain.ReviewCard) error {
	var last sql.NullTime
	if !c.LastReview.IsZero() {
		last = sql.NullTime{Time: c.LastReview.UTC(), Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO review_cards (sentence_id, interval_rank, next_review_at, difficulty, last_review)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sentence_id) DO UPDATE SET
			interval_rank = excluded.interval_rank,
			next_review_at = excluded.next_review_at,
			difficulty = excluded.difficulty,
			last_review = excluded.last_review
	`,
		c.SentenceID,
		c.IntervalRank,
		c.NextReviewAt.UTC(),
		c.Difficulty,
		last,
	)
	if err != nil {
		if isForeignKeyErr(err) {
			return fmt.Errorf("card %d: %w", c.SentenceID, ErrNotSaved)
		}
		return fmt.Errorf("failed to store review card %d: %w", c.SentenceID, err)
	}
	return nil
}

func isForeignKeyErr(err error) bool {
	return isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

func isUniqueErr(err error) bool {
	return isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

// isConstraintErr matches an extended sqlite result code, falling back to the
// message for drivers that only report the primary code.
func isConstraintErr(err error, code int, msg string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == code || strings.Contains(se.Error(), msg)
}

// InsertReviewLog appends a review outcome.
func (db *DB) InsertReviewLog(l domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_logs (sentence_id, reviewed_at, known)
		VALUES (?, ?, ?)
	`, l.SentenceID, l.Timestamp.UTC(), l.Known)
	if err != nil {
		return fmt.Errorf("failed to insert review log for %d: %w", l.SentenceID, err)
	}
	return nil
}

// ReviewLogs returns the review history of a sentence, oldest first.
func (db *DB) ReviewLogs(sentenceID int64) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT sentence_id, reviewed_at, known
		FROM review_logs WHERE sentence_id = ?
		ORDER BY reviewed_at, id
	`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for %d: %w", sentenceID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		if err := rows.Scan(&l.SentenceID, &l.Timestamp, &l.Known); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
