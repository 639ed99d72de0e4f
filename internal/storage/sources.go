package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSourceExists is returned when adding a path that is already a source.
	ErrSourceExists = errors.New("storage: source already exists")
	// ErrNoSource is returned when a source id does not exist.
	ErrNoSource = errors.New("storage: no such source")
)

// SourceType says how a source's sentence files are obtained.
type SourceType string

const (
	SourceLocal SourceType = "local" // a directory on this machine
	SourceGit   SourceType = "git"   // a repository cloned into the repos directory
)

// Source is a place sentences are loaded from.
type Source struct {
	ID          int64
	Path        string
	Type        SourceType
	LastScanned sql.NullTime
}

const sourceColumns = `id, path, type, last_scanned`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (Source, error) {
	var (
		s   Source
		typ string
	)
	if err := row.Scan(&s.ID, &s.Path, &typ, &s.LastScanned); err != nil {
		return Source{}, err
	}
	s.Type = SourceType(typ)
	return s, nil
}

// AddSource registers path as a source and returns its id.
func (db *DB) AddSource(path string, typ SourceType) (int64, error) {
	res, err := db.conn.Exec(`INSERT INTO sources (path, type) VALUES (?, ?)`, path, string(typ))
	if err != nil {
		if isUniqueErr(err) {
			return 0, fmt.Errorf("%w: %s", ErrSourceExists, path)
		}
		return 0, fmt.Errorf("failed to add source %s: %w", path, err)
	}
	return res.LastInsertId()
}

// Sources lists every source in the order they were added.
func (db *DB) Sources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// MarkScanned records when a source was last loaded.
func (db *DB) MarkScanned(sourceID int64, at time.Time) error {
	return db.execOne(`UPDATE sources SET last_scanned = ? WHERE id = ?`, at.UTC(), sourceID)
}

// RemoveSource deletes a source. Sentences it provided disappear from the
// corpus on the next load; saved items are kept.
func (db *DB) RemoveSource(sourceID int64) error {
	return db.execOne(`DELETE FROM sources WHERE id = ?`, sourceID)
}

// execOne runs a statement that must touch exactly one source row.
func (db *DB) execOne(query string, args ...any) error {
	res, err := db.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update sources: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSource
	}
	return nil
}
