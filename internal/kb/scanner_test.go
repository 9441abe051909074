package kb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garagekb/garagekb/internal/config"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		DataDir:       dir,
		Port:          5000,
		TitlePattern:  `(?m)^#\s+(.+)$`,
		SharePattern:  `https://buildin\.ai/share/([a-f0-9-]+)`,
		MaxFileSize:   16 << 20,
		PreviewRadius: 100,
	}
}

func writeFolder(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for fname, content := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", fname, err)
		}
	}
	return dir
}

func newTestScanner(t *testing.T, cfg *config.Config) *Scanner {
	t.Helper()
	s, err := NewScanner(cfg, nil)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	return s
}

func TestScan_TitleFromHeading(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "setup-printer", map[string]string{
		"guide.md": "# Настройка принтера\n\nПодключите кабель.\n",
	})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.ID != "setup-printer" {
		t.Fatalf("id: %q", d.ID)
	}
	if d.Title != "Настройка принтера" {
		t.Fatalf("title: %q", d.Title)
	}
	if !strings.Contains(d.Content, "Подключите кабель.") {
		t.Fatalf("content missing body: %q", d.Content)
	}
	if d.ModifiedAt.IsZero() {
		t.Fatalf("modified time not set")
	}
}

func TestScan_TitleFallsBackToFolderName(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "no-heading", map[string]string{
		"doc.md": "Just text without any heading.\n",
	})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Title != "no-heading" {
		t.Fatalf("title should fall back to folder name, got %q", docs[0].Title)
	}
}

func TestScan_FrontMatterTitleWins(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "fm", map[string]string{
		"doc.md": "---\ntitle: Override Title\ntags:\n  - network\n  - vpn\n---\n# Heading Title\n\nBody.\n",
	})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.Title != "Override Title" {
		t.Fatalf("front matter title should win, got %q", d.Title)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "network" {
		t.Fatalf("tags: %v", d.Tags)
	}
	if strings.Contains(d.Content, "Override Title") {
		t.Fatalf("front matter block should be stripped from content")
	}
	if !strings.Contains(d.Content, "# Heading Title") {
		t.Fatalf("body should survive: %q", d.Content)
	}
}

func TestScan_BrokenFrontMatterKeptAsBody(t *testing.T) {
	root := t.TempDir()
	raw := "---\ntitle: [unclosed\n---\nBody after broken block.\n"
	writeFolder(t, root, "broken-fm", map[string]string{"doc.md": raw})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if !strings.Contains(d.Content, "---") {
		t.Fatalf("broken front matter should stay in content: %q", d.Content)
	}
	if d.Title != "broken-fm" {
		t.Fatalf("title should fall back to folder name, got %q", d.Title)
	}
}

func TestScan_ImagesCollected(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "with-images", map[string]string{
		"doc.md":    "# Images\n\nSee below.\n",
		"pic.png":   "png-bytes",
		"photo.JPG": "jpg-bytes",
		"anim.webp": "webp-bytes",
		"note.txt":  "not an image",
	})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	images := docs[0].Images
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %v", images)
	}
	want := map[string]bool{"pic.png": true, "photo.JPG": true, "anim.webp": true}
	for _, img := range images {
		if !want[img] {
			t.Fatalf("unexpected image %q", img)
		}
	}
}

func TestScan_FolderWithoutMarkdownHidden(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "images-only", map[string]string{"pic.png": "bytes"})
	writeFolder(t, root, "real", map[string]string{"doc.md": "# Real\n\nContent.\n"})

	s := newTestScanner(t, testConfig(root))

	docs := s.Scan(context.Background())
	if len(docs) != 1 || docs[0].ID != "real" {
		t.Fatalf("images-only folder must be hidden from listings: %v", docs)
	}

	all := s.ScanAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("ScanAll should report every folder, got %d", len(all))
	}
	for _, fs := range all {
		if fs.Doc.ID == "images-only" {
			if fs.Err != nil {
				t.Fatalf("images-only is not an error: %v", fs.Err)
			}
			if fs.Doc.Listed() {
				t.Fatalf("images-only must not be listed")
			}
		}
	}
}

func TestScan_MultipleMarkdownLastWins(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "multi", map[string]string{
		"a.md": "# First\n\nFirst body.\n",
		"b.md": "# Second\n\nSecond body.\n",
	})

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Title != "Second" {
		t.Fatalf("later file should win, got title %q", docs[0].Title)
	}
}

func TestScan_OversizeFileBecomesErrorContent(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "huge", map[string]string{
		"doc.md": strings.Repeat("x", 100),
	})
	cfg := testConfig(root)
	cfg.MaxFileSize = 10

	docs := newTestScanner(t, cfg).Scan(context.Background())
	if len(docs) != 1 {
		t.Fatalf("oversize document stays listed, got %d", len(docs))
	}
	if !strings.HasPrefix(docs[0].Content, "Error reading file:") {
		t.Fatalf("content should carry the error: %q", docs[0].Content)
	}
	if !strings.Contains(docs[0].Content, "larger than 10 bytes") {
		t.Fatalf("content should name the limit: %q", docs[0].Content)
	}
}

func TestScan_MissingRootYieldsNothing(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	s := newTestScanner(t, cfg)
	if docs := s.Scan(context.Background()); len(docs) != 0 {
		t.Fatalf("missing root must yield no documents, got %d", len(docs))
	}
	if all := s.ScanAll(context.Background()); len(all) != 0 {
		t.Fatalf("missing root must yield no folder scans, got %d", len(all))
	}
}

func TestScan_TopLevelFilesIgnored(t *testing.T) {
	root := t.TempDir()
	writeFolder(t, root, "only", map[string]string{"doc.md": "# Only\n\nBody.\n"})
	if err := os.WriteFile(filepath.Join(root, "stray.md"), []byte("# Stray"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 1 || docs[0].ID != "only" {
		t.Fatalf("top-level files are not documents: %v", docs)
	}
}

func TestScan_NewestFirst(t *testing.T) {
	root := t.TempDir()
	oldDir := writeFolder(t, root, "older", map[string]string{"doc.md": "# Older\n\nBody.\n"})
	newDir := writeFolder(t, root, "newer", map[string]string{"doc.md": "# Newer\n\nBody.\n"})

	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(oldDir, base, base); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(newDir, base.Add(30*time.Minute), base.Add(30*time.Minute)); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	docs := newTestScanner(t, testConfig(root)).Scan(context.Background())
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "newer" || docs[1].ID != "older" {
		t.Fatalf("expected newest first, got %s, %s", docs[0].ID, docs[1].ID)
	}
}

func TestNewScanner_BadTitlePattern(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.TitlePattern = "("
	if _, err := NewScanner(cfg, nil); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
}

func TestNormalizeContent(t *testing.T) {
	got := normalizeContent([]byte("a\r\nb\rc\n\n\n\nd"))
	if got != "a\nb\nc\n\nd" {
		t.Fatalf("normalize: %q", got)
	}
}

func TestFileClassification(t *testing.T) {
	if !isMarkdown("Guide.MD") || !isMarkdown("readme.markdown") {
		t.Fatalf("markdown extensions are case-insensitive")
	}
	if isMarkdown("doc.txt") {
		t.Fatalf("txt is not markdown")
	}
	if !isImage("photo.JPEG") || !isImage("anim.gif") || !isImage("x.webp") {
		t.Fatalf("image extensions are case-insensitive")
	}
	if isImage("vector.svg") || isImage("doc.md") {
		t.Fatalf("unsupported extensions are not images")
	}
}
