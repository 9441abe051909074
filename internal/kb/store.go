package kb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/garagekb/garagekb/internal/config"
)

// ErrNotFound marks lookups for documents or images that do not exist.
var ErrNotFound = errors.New("not found")

// Store serves documents to the web, CLI and MCP layers. By default every
// read rescans the data directory, so a write to disk is visible on the next
// request. With the cache enabled the previous scan is reused until the root
// mtime changes or the watcher reports an event; either way a read issued
// after a write observes that write.
type Store struct {
	scanner *Scanner
	logger  *zap.Logger

	cacheEnabled bool

	mu      sync.Mutex
	cached  []Document
	haveRun bool
	rootMod time.Time
	dirty   bool

	watcher *fsnotify.Watcher
}

// NewStore builds the scanner and, when configured, the cache watcher.
// Callers own the store and should Close it on shutdown.
func NewStore(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner, err := NewScanner(cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &Store{
		scanner:      scanner,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled,
	}
	if cfg.CacheEnabled && cfg.CacheWatch {
		if err := s.startWatcher(); err != nil {
			logger.Warn("cache watcher unavailable, relying on mtime checks", zap.Error(err))
		}
	}
	return s, nil
}

// Root returns the data directory being served.
func (s *Store) Root() string { return s.scanner.Root() }

// Close stops the cache watcher, if one is running.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Documents returns the listable documents, newest first.
func (s *Store) Documents(ctx context.Context) []Document {
	if !s.cacheEnabled {
		return s.scanner.Scan(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The mtime stamp is taken before scanning: a write landing mid-scan
	// flips the comparison on the next read.
	mod := s.rootModTime()
	if s.haveRun && !s.dirty && mod.Equal(s.rootMod) {
		return s.cached
	}
	docs := s.scanner.Scan(ctx)
	s.cached = docs
	s.haveRun = true
	s.dirty = false
	s.rootMod = mod
	return docs
}

// ScanAll exposes the per-folder scan results, bypassing the cache.
func (s *Store) ScanAll(ctx context.Context) []FolderScan {
	return s.scanner.ScanAll(ctx)
}

// Get returns the listed document with the given id.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	for _, d := range s.Documents(ctx) {
		if d.ID == id {
			return d, nil
		}
	}
	return Document{}, fmt.Errorf("instruction %q: %w", id, ErrNotFound)
}

// ImagePath resolves an image inside a document folder. Path segments that
// could escape the folder are rejected the same way as missing files.
func (s *Store) ImagePath(id, filename string) (string, error) {
	if !safePathSegment(id) || !safePathSegment(filename) {
		return "", fmt.Errorf("image %s/%s: %w", id, filename, ErrNotFound)
	}
	path := filepath.Join(s.scanner.Root(), id, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("image %s/%s: %w", id, filename, ErrNotFound)
	}
	return path, nil
}

func (s *Store) rootModTime() time.Time {
	info, err := os.Stat(s.scanner.Root())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (s *Store) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// startWatcher watches the root and its folders. Events inside a folder do
// not touch the root mtime, so the watcher is what catches edits to
// existing documents.
func (s *Store) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.scanner.Root()); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.scanner.Root(), err)
	}
	if entries, err := os.ReadDir(s.scanner.Root()); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				_ = w.Add(filepath.Join(s.scanner.Root(), e.Name()))
			}
		}
	}
	s.watcher = w
	go s.watch()
	return nil
}

func (s *Store) watch() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.markDirty()
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = s.watcher.Add(event.Name)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("cache watcher error", zap.Error(err))
		}
	}
}

func safePathSegment(segment string) bool {
	if segment == "" || segment == "." || segment == ".." {
		return false
	}
	return !strings.ContainsAny(segment, `/\`)
}
