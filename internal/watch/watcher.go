// Package watch signals when any input of a previous expansion changes.
//
// The watched set is replaced after every run: the files that were entered
// and the directories that were searched. Events on watched files, and file
// creation or removal inside watched directories (which can change how a
// reference resolves), are coalesced into a single Change after a quiet
// period.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is the default quiet period before a Change is sent
const DefaultDebounceDelay = 100 * time.Millisecond

// Change reports the paths touched since the last Change.
type Change struct {
	Paths     []string  // Sorted, deduplicated
	Timestamp time.Time // When the quiet period ended
}

// IgnoreFunc reports whether events for path should be dropped.
type IgnoreFunc func(path string) bool

// Watcher watches the inputs of an expansion
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan Change
	errors  chan error
	done    chan struct{}

	mu            sync.Mutex
	files         map[string]bool
	dirs          map[string]bool
	ignore        IgnoreFunc
	debounceDelay time.Duration
	timer         *time.Timer
	pending       map[string]bool
	closed        bool
}

// New creates a Watcher with nothing watched yet.
func New(debounce time.Duration, ignore IgnoreFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	w := &Watcher{
		watcher:       fsw,
		changes:       make(chan Change, 1),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		files:         make(map[string]bool),
		dirs:          make(map[string]bool),
		ignore:        ignore,
		debounceDelay: debounce,
		pending:       make(map[string]bool),
	}

	go w.processEvents()

	return w, nil
}

// Set replaces the watched inputs. files are individual inputs; dirs are
// search locations where a new or removed file matters too. The parent
// directory of every file is watched so that editors that save by rename
// are still seen.
func (w *Watcher) Set(files, dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	nextFiles := make(map[string]bool, len(files))
	nextDirs := make(map[string]bool, len(dirs)+len(files))
	for _, f := range files {
		abs := absPath(f)
		nextFiles[abs] = true
		nextDirs[filepath.Dir(abs)] = true
	}
	for _, d := range dirs {
		nextDirs[absPath(d)] = true
	}

	for dir := range w.dirs {
		if !nextDirs[dir] {
			// Removal fails if the directory is already gone; nothing to undo.
			_ = w.watcher.Remove(dir)
		}
	}
	added := make(map[string]bool, len(nextDirs))
	for dir := range nextDirs {
		if w.dirs[dir] {
			added[dir] = true
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			// Missing search directories are allowed; they may appear later
			// but are not tracked until the next Set.
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
				continue
			}
			return err
		}
		added[dir] = true
	}

	w.files = nextFiles
	w.dirs = added
	return nil
}

// Watched returns the watched files and directories, sorted.
func (w *Watcher) Watched() (files, dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for f := range w.files {
		files = append(files, f)
	}
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs
}

// processEvents processes fsnotify events until Close
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel full, drop the error
			}
		}
	}
}

// handleEvent decides whether a raw event is relevant
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	path := absPath(event.Name)
	if w.ignore != nil && w.ignore(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	relevant := w.files[path]
	if !relevant && w.dirs[filepath.Dir(path)] {
		relevant = event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	}
	if !relevant {
		return
	}

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.flush)
}

// flush sends the pending paths as one Change
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(paths)
	change := Change{Paths: paths, Timestamp: time.Now()}

	select {
	case w.changes <- change:
	case <-w.done:
	default:
		// A Change is already queued; it will trigger the same rebuild.
	}
}

// Changes returns the channel for receiving coalesced changes
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)

	return w.watcher.Close()
}

// IgnoreOutput returns an IgnoreFunc dropping events for the output file and
// the temporary and lock files written while publishing it.
func IgnoreOutput(output string) IgnoreFunc {
	if output == "" {
		return nil
	}
	target := absPath(output)
	dir := filepath.Dir(target)
	return func(path string) bool {
		if path == target || path == target+".lock" {
			return true
		}
		return filepath.Dir(path) == dir && strings.HasPrefix(filepath.Base(path), ".incflat-")
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
