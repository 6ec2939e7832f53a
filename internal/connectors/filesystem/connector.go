// Package filesystem reads a legal corpus from a local directory and
// watches it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ProcessedDir holds generated artefacts and is never ingested.
const ProcessedDir = "_processed"

// mimeTypes lists the file types the corpus accepts.
var mimeTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".txt":  "text/plain",
}

// Connector walks and watches one corpus root. URIs are slash-separated
// paths relative to the root.
type Connector struct {
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a connector for rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Root returns the corpus root.
func (c *Connector) Root() string {
	return c.rootPath
}

// FullSync emits every supported file under the root in lexical order.
// Both channels are closed when the walk ends.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if _, err := os.Stat(c.rootPath); err != nil {
			if os.IsNotExist(err) {
				errs <- fmt.Errorf("corpus root %s does not exist", c.rootPath)
				return
			}
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if path != c.rootPath && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !c.accepts(path) {
				return nil
			}

			doc, err := c.read(path)
			if err != nil {
				logger.Warn("corpus_read_failed", "path", path, "error", err)
				return nil
			}
			select {
			case docs <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch emits files that are created or written under the root until ctx
// is cancelled or Close is called. Removals are ignored: stale vectors are
// left in the index.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocument, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := c.addTree(w, c.rootPath); err != nil {
		_ = w.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	c.watcher = w
	c.mu.Unlock()

	out := make(chan domain.RawDocument)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) && isDir(ev.Name) && !skipDir(filepath.Base(ev.Name)) {
					if err := c.addTree(w, ev.Name); err != nil {
						logger.Warn("corpus_watch_add_failed", "path", ev.Name, "error", err)
					}
					continue
				}
				doc := c.handleFsEvent(ev)
				if doc == nil {
					continue
				}
				select {
				case out <- *doc:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("corpus_watch_error", "error", err)
			}
		}
	}()

	return out, nil
}

// handleFsEvent converts a create or write event on a supported file into
// a raw document. Other events yield nil.
func (c *Connector) handleFsEvent(ev fsnotify.Event) *domain.RawDocument {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return nil
	}
	if !c.accepts(ev.Name) || isDir(ev.Name) {
		return nil
	}
	doc, err := c.read(ev.Name)
	if err != nil {
		logger.Debug("corpus_event_unreadable", "path", ev.Name, "error", err)
		return nil
	}
	return doc
}

// Close stops any active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Connector) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// accepts reports whether path is a supported, visible file outside any
// skipped directory.
func (c *Connector) accepts(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if DetectMIMEType(path) == "" {
		return false
	}
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ProcessedDir {
			return false
		}
	}
	return true
}

func (c *Connector) read(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		URI:        filepath.ToSlash(rel),
		MIMEType:   DetectMIMEType(path),
		Content:    content,
		ModifiedAt: info.ModTime(),
	}, nil
}

// DetectMIMEType maps a corpus file extension to a MIME type, or "".
func DetectMIMEType(path string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(path))]
}

func skipDir(name string) bool {
	return name == ProcessedDir || strings.HasPrefix(name, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
