// Package watcher reports changes to a fixed set of files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, so the watcher observes the parent directories and filters
// events by file name. Rapid changes are coalesced: a Change is delivered
// once no event has arrived for the debounce delay.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrPathNotExist = errors.New("path does not exist")
	ErrNoPaths      = errors.New("no paths to watch")
)

// DefaultDelay is the default debounce delay.
const DefaultDelay = 100 * time.Millisecond

// Change lists the watched files that changed during one debounce window.
type Change struct {
	Paths []string
	At    time.Time
}

// Stats provides watcher status information.
type Stats struct {
	WatchedFiles int
	TotalEvents  int64
	TotalChanges int64
	Errors       int64
}

// Watcher watches files for modification.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	delay   time.Duration
	files   map[string]bool
	changes chan Change
	errors  chan error

	totalEvents  int64
	totalChanges int64
	totalErrors  int64

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New watches paths. A delay <= 0 selects DefaultDelay.
func New(delay time.Duration, paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrPathNotExist
			}
			return nil, err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(files) == 0 {
		return nil, ErrNoPaths
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fsw:     fsw,
		delay:   delay,
		files:   files,
		changes: make(chan Change, 16),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Changes returns the channel of coalesced changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the error channel.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Files returns the watched files as absolute paths.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	return Stats{
		WatchedFiles: len(w.files),
		TotalEvents:  atomic.LoadInt64(&w.totalEvents),
		TotalChanges: atomic.LoadInt64(&w.totalChanges),
		Errors:       atomic.LoadInt64(&w.totalErrors),
	}
}

// Close stops the watcher. Pending changes are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.changes)
	close(w.errors)
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			atomic.AddInt64(&w.totalEvents, 1)
			pending[filepath.Clean(ev.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			change := Change{At: time.Now()}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			slices.Sort(change.Paths)
			clear(pending)
			select {
			case w.changes <- change:
				atomic.AddInt64(&w.totalChanges, 1)
			case <-w.closeCh:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			atomic.AddInt64(&w.totalErrors, 1)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// relevant reports whether ev may have changed the contents of a watched
// file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
