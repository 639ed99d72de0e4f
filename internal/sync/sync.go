// Package sync loads the sentence corpus from every configured source.
package sync

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/phrasedrill/internal/corpus"
	"github.com/conorfennell/phrasedrill/internal/domain"
	"github.com/conorfennell/phrasedrill/internal/gitsource"
	"github.com/conorfennell/phrasedrill/internal/storage"
)

// Result summarises a corpus load.
type Result struct {
	Sentences []domain.Sentence
	Errors    []error
	Orphans   []int64 // saved ids absent from the corpus
}

// LoadCorpus reads every source into one corpus. Git sources are cloned or
// pulled into reposDir first. When two sources define the same sentence id
// the first source wins. Saved sentences missing from the corpus are
// reported as orphans and, if pruneOrphans is set, un-saved.
func LoadCorpus(ctx context.Context, db *storage.DB, reposDir string, pruneOrphans bool) (*Result, error) {
	slog.Info("Loading corpus from all sources...")
	sources, err := db.Sources()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	res := &Result{}
	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with: phrasedrill add-source <path/or/url.git>")
		return res, nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repos directory: %w", err)
	}

	seen := make(map[int64]bool)
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slog.Info("Loading source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			dir, err = gitsource.LocalPath(reposDir, source.Path)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			if err := gitsource.Sync(ctx, source.Path, dir); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				res.Errors = append(res.Errors, err)
				continue
			}
		}

		sentences, errs := loadDir(dir)
		res.Errors = append(res.Errors, errs...)
		added := 0
		for _, s := range sentences {
			if seen[s.ID] {
				slog.Warn("Duplicate sentence id across sources, keeping the first", "id", s.ID, "path", source.Path)
				continue
			}
			seen[s.ID] = true
			res.Sentences = append(res.Sentences, s)
			added++
		}

		if err := db.MarkScanned(source.ID, time.Now()); err != nil {
			slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
		}
		slog.Info("source loaded", "path", source.Path, "sentences", added, "errors", len(errs))
	}

	saved, err := db.SavedIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range saved {
		if seen[id] {
			continue
		}
		res.Orphans = append(res.Orphans, id)
		if !pruneOrphans {
			slog.Warn("Saved sentence not found in corpus", "id", id)
			continue
		}
		slog.Info("Orphaned saved sentence, un-saving", "id", id)
		if err := db.UnsaveItem(id); err != nil {
			slog.Warn("Failed to un-save orphaned sentence", "id", id, "error", err)
		}
	}

	slog.Info("Corpus load complete.",
		"sentences", len(res.Sentences),
		"orphans", len(res.Orphans),
		"errors", len(res.Errors),
	)
	return res, nil
}

// loadDir parses every markdown file under dir, in lexical path order.
func loadDir(dir string) ([]domain.Sentence, []error) {
	var (
		sentences []domain.Sentence
		errs      []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileSentences, parseErr := corpus.ParseFile(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		sentences = append(sentences, fileSentences...)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking %s: %w", dir, walkErr))
	}
	return sentences, errs
}

// SortByID orders sentences by id, for stable listings.
func SortByID(sentences []domain.Sentence) {
	slices.SortFunc(sentences, func(a, b domain.Sentence) int { return cmp.Compare(a.ID, b.ID) })
}
