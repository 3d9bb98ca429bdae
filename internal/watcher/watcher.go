// Package watcher reports edits to the relayout config file so the demo can
// apply a new expected ratio while it runs.
//
// Bursts of file events are debounced into one notification, and a save that
// leaves the file's bytes unchanged (the demo rewriting the ratio it already
// holds, an editor touching the file) is not reported at all.
package watcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/relayout/internal/log"
)

// Config configures Watch.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig watches path with a 250ms debounce.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 250 * time.Millisecond}
}

type fileWatch struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	sum      []byte
	out      chan struct{}
}

// Watch reports changes to cfg.Path until ctx is done, then closes the
// returned channel. It watches the parent directory because editors and atomic
// saves replace the file rather than write it in place.
func Watch(ctx context.Context, cfg Config) (<-chan struct{}, error) {
	path := filepath.Clean(cfg.Path)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	w := &fileWatch{
		fs:       fsw,
		path:     path,
		debounce: cfg.Debounce,
		sum:      fingerprint(path),
		out:      make(chan struct{}, 1),
	}
	log.Debug(log.CatWatcher, "watching config", "path", path, "debounce", cfg.Debounce)

	go w.run(ctx)
	return w.out, nil
}

func (w *fileWatch) run(ctx context.Context) {
	defer close(w.out)
	defer func() { _ = w.fs.Close() }()

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.touches(ev) {
				settle = time.After(w.debounce)
			}

		case <-settle:
			settle = nil
			w.settled()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "path", w.path)
		}
	}
}

func (w *fileWatch) touches(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(ev.Name) == w.path
}

// settled runs once the event burst is over.
func (w *fileWatch) settled() {
	sum := fingerprint(w.path)
	if sum == nil || bytes.Equal(sum, w.sum) {
		log.Debug(log.CatWatcher, "config content unchanged", "path", w.path)
		return
	}
	w.sum = sum

	log.Debug(log.CatWatcher, "config changed", "path", w.path)
	select {
	case w.out <- struct{}{}:
	default:
	}
}

// fingerprint hashes the file at path, or returns nil if it cannot be read.
func fingerprint(path string) []byte {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		return nil
	}
	sum := sha256.Sum256(data)
	return sum[:]
}
