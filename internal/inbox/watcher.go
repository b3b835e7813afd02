// Package inbox watches a directory for WhatsApp chat exports and hands
// each new file to an import handler.
package inbox

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce batches the burst of events a single file copy produces.
const DefaultDebounce = 500 * time.Millisecond

// Handler imports one export file. name is the contact name derived from
// the filename.
type Handler func(ctx context.Context, path, name string) error

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	// KeepFiles leaves handled files in place instead of moving them to
	// processed/ or failed/.
	KeepFiles bool
	Logger    zerolog.Logger
}

// Watcher monitors an inbox directory tree.
type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	ignore  *IgnoreMatcher
	fsw     *fsnotify.Watcher
	now     func() time.Time
}

// New creates the inbox directory if needed and starts watching it.
func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("inbox: create %s: %w", dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("inbox: create watcher: %w", err)
	}

	w := &Watcher{
		dir:     dir,
		handler: handler,
		opts:    opts,
		ignore:  NewIgnoreMatcher(dir),
		fsw:     fsw,
		now:     time.Now,
	}
	if err := w.addWatchDirs(); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("inbox: add watch directories: %w", err)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addWatchDirs recursively adds directories to the watcher, skipping ignored ones.
func (w *Watcher) addWatchDirs() error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.dir, path)
		if rel != "." && shouldIgnore(rel, w.ignore) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// ScanExisting handles export files already in the inbox and returns how
// many were handed to the handler.
func (w *Watcher) ScanExisting(ctx context.Context) int {
	var paths []string
	_ = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(w.dir, path)
		if rel == "." {
			return nil
		}
		if shouldIgnore(rel, w.ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})

	n := 0
	for _, p := range paths {
		if w.process(ctx, p) {
			n++
		}
	}
	return n
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(w.dir, event.Name)
			if err != nil || rel == "." || shouldIgnore(rel, w.ignore) {
				continue
			}

			// If a new directory was created, start watching it.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if _, ok := ContactNameFromFilename(event.Name); !ok {
				continue
			}

			pending[event.Name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn().Err(err).Msg("inbox watch error")

		case <-timer.C:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			pending = make(map[string]struct{})
			sort.Strings(batch)

			for _, p := range batch {
				w.process(ctx, p)
			}
		}
	}
}

// process hands one file to the handler and files it away. It reports
// whether the handler ran.
func (w *Watcher) process(ctx context.Context, path string) bool {
	name, ok := ContactNameFromFilename(path)
	if !ok {
		return false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}

	log := w.opts.Logger.With().Str("file", path).Str("contact", name).Logger()
	if err := w.handler(ctx, path, name); err != nil {
		log.Error().Err(err).Msg("inbox import failed")
		w.fileAway(path, FailedDir, log)
		return true
	}
	log.Info().Msg("inbox import complete")
	w.fileAway(path, ProcessedDir, log)
	return true
}

func (w *Watcher) fileAway(path, sub string, log zerolog.Logger) {
	if w.opts.KeepFiles {
		return
	}
	destDir := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("create " + sub + " directory")
		return
	}
	name := filepath.Base(path)
	if name == iosChatFile {
		name = filepath.Base(filepath.Dir(path)) + ".txt"
	}
	dest := filepath.Join(destDir, w.now().Format("20060102-150405")+"-"+name)
	if err := os.Rename(path, dest); err != nil {
		log.Warn().Err(err).Msg("move handled file")
	}
}
