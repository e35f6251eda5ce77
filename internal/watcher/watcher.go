// Package watcher runs the hot-folder mode: survey extracts dropped into a
// directory are scored automatically, with predictions written next to the
// input.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// OutputSuffix marks files the watcher itself wrote. Anything ending in it
// is never picked up again, or one drop would score forever.
const OutputSuffix = ".predictions.csv"

// OutputPath returns where predictions for input land: the input path with
// its extension replaced by OutputSuffix.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + OutputSuffix
}

// Options tunes a Watcher.
type Options struct {
	// Pattern is a filepath.Match glob applied to base names. Empty means
	// "*.csv".
	Pattern string
	// Debounce is how long a file must stay quiet before it is processed.
	// Editors and network copies fire many writes per save.
	Debounce time.Duration
	Log      *zap.Logger
}

// Watcher debounces filesystem events in one directory and hands settled
// files to a process callback.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	process  func(path string) error
	log      *zap.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// New prepares a watcher over dir. Run starts it.
func New(dir string, process func(path string) error, opts Options) (*Watcher, error) {
	if process == nil {
		return nil, fmt.Errorf("watcher needs a process callback")
	}
	if opts.Pattern == "" {
		opts.Pattern = "*.csv"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		pattern:  opts.Pattern,
		debounce: opts.Debounce,
		process:  process,
		log:      opts.Log,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only when watching itself breaks.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching for batches",
		zap.String("dir", w.dir),
		zap.String("pattern", w.pattern),
		zap.Duration("debounce", w.debounce))

	flush := time.NewTicker(w.debounce / 4)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))
		case <-flush.C:
			for _, path := range w.settled() {
				w.runOne(path)
			}
		}
	}
}

// handleEvent records write activity for eligible files. The timestamp is
// refreshed on every event, so a file settles only once writes stop.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.eligible(ev.Name) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// eligible reports whether name is an input batch: it matches the glob and
// is not one of our own outputs.
func (w *Watcher) eligible(name string) bool {
	base := filepath.Base(name)
	if strings.HasSuffix(base, OutputSuffix) {
		return false
	}
	ok, err := filepath.Match(w.pattern, base)
	return err == nil && ok
}

// settled drains pending entries older than the debounce window.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	now := time.Now()
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}

func (w *Watcher) runOne(path string) {
	w.log.Info("processing batch", zap.String("path", path))
	if err := w.process(path); err != nil {
		// One bad file must not stop the folder.
		w.log.Error("batch failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("batch scored", zap.String("path", path), zap.String("output", OutputPath(path)))
}
