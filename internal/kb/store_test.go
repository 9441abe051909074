package kb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_NoCacheSeesEveryWrite(t *testing.T) {
	root := t.TempDir()
	dir := writeFolder(t, root, "doc", map[string]string{"doc.md": "# Doc\n\nBody.\n"})

	store, err := NewStore(testConfig(root), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if docs := store.Documents(ctx); len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if err := os.Remove(filepath.Join(dir, "doc.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if docs := store.Documents(ctx); len(docs) != 0 {
		t.Fatalf("without cache every read rescans, got %d", len(docs))
	}
}

func TestStore_CacheInvalidatedByRootChange(t *testing.T) {
	root := t.TempDir()
	aDir := writeFolder(t, root, "a", map[string]string{"doc.md": "# A\n\nBody.\n"})

	cfg := testConfig(root)
	cfg.CacheEnabled = true
	cfg.CacheWatch = false
	store, err := NewStore(cfg, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if docs := store.Documents(ctx); len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	// Removing a file inside an existing folder leaves the root mtime
	// alone, so the cached result is served.
	if err := os.Remove(filepath.Join(aDir, "doc.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if docs := store.Documents(ctx); len(docs) != 1 {
		t.Fatalf("cached read expected, got %d documents", len(docs))
	}

	// A new folder changes the root mtime and invalidates the cache.
	writeFolder(t, root, "b", map[string]string{"doc.md": "# B\n\nBody.\n"})
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(root, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	docs := store.Documents(ctx)
	if len(docs) != 1 || docs[0].ID != "b" {
		t.Fatalf("rescan after root change expected, got %v", docs)
	}
}

func TestStore_WatcherCatchesFolderEdits(t *testing.T) {
	root := t.TempDir()
	dir := writeFolder(t, root, "doc", map[string]string{"doc.md": "# Before\n\nBody.\n"})

	cfg := testConfig(root)
	cfg.CacheEnabled = true
	cfg.CacheWatch = true
	store, err := NewStore(cfg, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if docs := store.Documents(ctx); len(docs) != 1 || docs[0].Title != "Before" {
		t.Fatalf("initial read: %v", docs)
	}

	if err := os.WriteFile(filepath.Join(dir, "doc.md"), []byte("# After\n\nBody.\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		docs := store.Documents(ctx)
		if len(docs) == 1 && docs[0].Title == "After" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not surface the edit, last read: %v", docs)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStore_Get(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "known", map[string]string{"doc.md": "# Known\n\nBody.\n"})

	store, err := NewStore(testConfig(root), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	doc, err := store.Get(ctx, "known")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Title != "Known" {
		t.Fatalf("title: %q", doc.Title)
	}

	if _, err := store.Get(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ImagePath(t *testing.T) {
	root := t.TempDir()
	dir := writeFolder(t, root, "doc", map[string]string{
		"doc.md":  "# Doc\n\nBody.\n",
		"pic.png": "png-bytes",
	})
	if err := os.MkdirAll(filepath.Join(dir, "thumbs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	store, err := NewStore(testConfig(root), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	path, err := store.ImagePath("doc", "pic.png")
	if err != nil {
		t.Fatalf("image path: %v", err)
	}
	if b, err := os.ReadFile(path); err != nil || string(b) != "png-bytes" {
		t.Fatalf("resolved path not readable: %v", err)
	}

	if _, err := store.ImagePath("doc", "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := store.ImagePath("doc", "thumbs"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("directories are not images: %v", err)
	}
	for _, bad := range []struct{ id, file string }{
		{"..", "pic.png"},
		{"doc", ".."},
		{"doc", "../doc/pic.png"},
		{"doc", `..\pic.png`},
		{"", "pic.png"},
		{"doc", ""},
	} {
		if _, err := store.ImagePath(bad.id, bad.file); !errors.Is(err, ErrNotFound) {
			t.Fatalf("traversal %q/%q must be rejected, got %v", bad.id, bad.file, err)
		}
	}
}
