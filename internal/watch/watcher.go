package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fileflow/internal/log"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of events into one change.
const DefaultDebounce = 250 * time.Millisecond

// Change reports that the contents of a watched directory changed.
type Change struct {
	Dir       string
	Paths     []string
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for more events before
// reporting a change.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher monitors the directory on screen so a listing can be refreshed
// when something else changes it. Only one directory is watched at a time.
type Watcher struct {
	dir      string
	debounce time.Duration

	// Channel to deliver changes
	changes chan Change

	// Channel to signal stop
	stopChan chan struct{}
	done     chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
}

// New creates a new directory watcher using fsnotify
func New(opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		debounce:  DefaultDebounce,
		changes:   make(chan Change, 4),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch replaces the watched directory with dir.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.dir == dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fsWatcher.Remove(w.dir); err != nil {
			log.LogWithFields(log.F("directory", w.dir)).WithError(err).Debug("Failed to unwatch directory")
		}
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	w.dir = dir
	log.LogWithFields(log.F("directory", dir)).Debug("Watching directory")
	return nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.dir
}

// Changes returns the channel that delivers changes. It is closed after
// Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins the event loop.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mutex.Unlock()

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []string
	)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if filepath.Dir(event.Name) != w.Dir() {
				continue
			}
			pending = append(pending, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			change := Change{Dir: w.Dir(), Paths: pending, Timestamp: time.Now()}
			pending, timer, timerC = nil, nil, nil
			// Send non-blockingly; a queued change already triggers a refresh
			select {
			case w.changes <- change:
			default:
				log.LogWithFields(log.F("directory", change.Dir)).Debug("Change channel is full, dropped change")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Stop halts the watcher and closes the change channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return
	}
	w.running = false
	w.mutex.Unlock()

	close(w.stopChan)
	<-w.done
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
}
