package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"go.uber.org/zap"

	"github.com/garagekb/garagekb/internal/config"
)

// frontMatter is the optional metadata block at the top of a markdown file.
type frontMatter struct {
	Title string   `yaml:"title" toml:"title"`
	Tags  []string `yaml:"tags" toml:"tags"`
}

// Scanner builds Documents from the folders under a root data directory.
// Every immediate subdirectory is one document; the markdown file inside
// provides content and title, image files are collected by name.
type Scanner struct {
	root        string
	titleRe     *regexp.Regexp
	maxFileSize int64
	logger      *zap.Logger
}

// NewScanner validates the title pattern and returns a scanner rooted at
// cfg.DataDir.
func NewScanner(cfg *config.Config, logger *zap.Logger) (*Scanner, error) {
	re, err := regexp.Compile(cfg.TitlePattern)
	if err != nil {
		return nil, fmt.Errorf("compile title pattern: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		root:        cfg.DataDir,
		titleRe:     re,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}, nil
}

// Root returns the data directory the scanner reads from.
func (s *Scanner) Root() string { return s.root }

// ScanAll returns one FolderScan per immediate subdirectory of the root, in
// directory enumeration order. A missing or unreadable root yields an empty
// result: the service keeps running against whatever is there.
func (s *Scanner) ScanAll(ctx context.Context) []FolderScan {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn("data directory not readable", zap.String("dir", s.root), zap.Error(err))
		return nil
	}
	var results []FolderScan
	for _, e := range entries {
		if ctx.Err() != nil {
			return results
		}
		if !e.IsDir() {
			continue
		}
		r := s.scanFolder(e.Name())
		if r.Err != nil {
			s.logger.Warn("folder scan failed", zap.String("folder", e.Name()), zap.Error(r.Err))
		}
		results = append(results, r)
	}
	return results
}

// Scan returns the listable documents: non-empty content, newest first.
func (s *Scanner) Scan(ctx context.Context) []Document {
	all := s.ScanAll(ctx)
	docs := make([]Document, 0, len(all))
	for _, r := range all {
		if r.Err == nil && r.Doc.Listed() {
			docs = append(docs, r.Doc)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].ModifiedAt.Equal(docs[j].ModifiedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].ModifiedAt.After(docs[j].ModifiedAt)
	})
	s.logger.Debug("scanned knowledge base", zap.Int("documents", len(docs)))
	return docs
}

// scanFolder extracts one document. Failures are confined to the folder:
// a folder-level error leaves the document unlisted, a file-level error
// becomes the document content so the problem is visible in the UI.
func (s *Scanner) scanFolder(name string) FolderScan {
	dir := filepath.Join(s.root, name)
	doc := Document{ID: name, Title: name}

	info, err := os.Stat(dir)
	if err != nil {
		doc.Title = "Error: " + err.Error()
		return FolderScan{Doc: doc, Err: fmt.Errorf("stat folder: %w", err)}
	}
	doc.ModifiedAt = info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		doc.Title = "Error: " + err.Error()
		return FolderScan{Doc: doc, Err: fmt.Errorf("read folder: %w", err)}
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case isMarkdown(e.Name()):
			// When several markdown files exist the last one in
			// enumeration order wins.
			s.readMarkdown(&doc, filepath.Join(dir, e.Name()))
		case isImage(e.Name()):
			doc.Images = append(doc.Images, e.Name())
		}
	}
	return FolderScan{Doc: doc}
}

// readMarkdown fills content, title and tags from one markdown file.
func (s *Scanner) readMarkdown(doc *Document, path string) {
	if info, err := os.Stat(path); err == nil && s.maxFileSize > 0 && info.Size() > s.maxFileSize {
		doc.Content = fmt.Sprintf("Error reading file: %s is larger than %d bytes", filepath.Base(path), s.maxFileSize)
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		doc.Content = "Error reading file: " + err.Error()
		return
	}

	body, meta := splitFrontMatter(normalizeContent(raw))
	doc.Content = body
	doc.Tags = meta.Tags

	if meta.Title != "" {
		doc.Title = meta.Title
	} else if title, ok := s.matchTitle(body); ok {
		doc.Title = title
	} else {
		doc.Title = doc.ID
	}
}

// matchTitle applies the heading-capture pattern and returns the first
// captured group, trimmed.
func (s *Scanner) matchTitle(content string) (string, bool) {
	m := s.titleRe.FindStringSubmatch(content)
	if len(m) < 2 {
		return "", false
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return "", false
	}
	return title, true
}

// splitFrontMatter strips an optional front-matter block. A block that fails
// to parse is kept as document body rather than dropped.
func splitFrontMatter(content string) (string, frontMatter) {
	var meta frontMatter
	rest, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil {
		return content, frontMatter{}
	}
	return string(rest), meta
}
