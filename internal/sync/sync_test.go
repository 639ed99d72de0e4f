package sync

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/conorfennell/phrasedrill/internal/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setup(t *testing.T) (*storage.DB, string) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := filepath.Join(tmp, "corpus")
	writeFile(t, filepath.Join(dir, "greetings.md"), "ID: 1\nen: Hello.\nes: Hola.\n---\nID: 2\nen: Bye.\nes: Adiós.\n")
	writeFile(t, filepath.Join(dir, "food", "fruit.md"), "ID: 3\nen: I like apples.\nes: Me gustan las manzanas.\n---\nID: 3\nen: Duplicate.\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ID: 4\nen: Ignored.\n")
	writeFile(t, filepath.Join(dir, ".hidden", "x.md"), "ID: 5\nen: Hidden.\n")

	if _, err := db.AddSource(dir, storage.SourceLocal); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	return db, tmp
}

func TestLoadCorpus(t *testing.T) {
	db, tmp := setup(t)
	for _, id := range []int64{1, 3, 42} {
		if err := db.SaveItem(id, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	res, err := LoadCorpus(context.Background(), db, filepath.Join(tmp, "repos"), false)
	if err != nil {
		t.Fatalf("LoadCorpus() returned an unexpected error: %v", err)
	}

	SortByID(res.Sentences)
	var ids []int64
	for _, s := range res.Sentences {
		ids = append(ids, s.ID)
	}
	if !slices.Equal(ids, []int64{1, 2, 3}) {
		t.Errorf("loaded ids %v, want [1 2 3]", ids)
	}
	if len(res.Errors) != 1 {
		t.Errorf("expected 1 parse error for the duplicate id, got %v", res.Errors)
	}
	if !slices.Equal(res.Orphans, []int64{42}) {
		t.Errorf("orphans = %v, want [42]", res.Orphans)
	}

	saved, _ := db.SavedIDs()
	if !slices.Contains(saved, 42) {
		t.Error("orphan was un-saved without pruning enabled")
	}

	sources, _ := db.Sources()
	if len(sources) != 1 || !sources[0].LastScanned.Valid {
		t.Errorf("source last_scanned not updated: %+v", sources)
	}
}

func TestLoadCorpusPrunesOrphans(t *testing.T) {
	db, tmp := setup(t)
	if err := db.SaveItem(42, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(context.Background(), db, filepath.Join(tmp, "repos"), true); err != nil {
		t.Fatalf("LoadCorpus() returned an unexpected error: %v", err)
	}
	saved, _ := db.SavedIDs()
	if len(saved) != 0 {
		t.Errorf("expected the orphan to be un-saved, still saved: %v", saved)
	}
}

func TestLoadCorpusNoSources(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	res, err := LoadCorpus(context.Background(), db, filepath.Join(tmp, "repos"), false)
	if err != nil || len(res.Sentences) != 0 {
		t.Errorf("LoadCorpus() = %+v, %v; want empty result", res, err)
	}
}
