package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"p95status/pkg/logger"
)

// minTick bounds how often settled events are checked
const minTick = 10 * time.Millisecond

// MatchFunc reports whether a base file name is a save file
type MatchFunc func(name string) bool

// Stats counts watcher activity
type Stats struct {
	Created       int
	Modified      int
	Removed       int
	Ignored       int
	Triggers      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Watcher reports settled changes to save files in one directory.
// Each batch of changes is sent on Changes as the sorted base names involved.
type Watcher struct {
	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	dir         string
	match       MatchFunc
	debounceDur time.Duration
	debounceMap map[string]time.Time
	changes     chan []string
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	now         func() time.Time
	logger      logger.Logger

	stats Stats
}

// New creates a Watcher for dir. A nil match accepts every file.
func New(dir string, match MatchFunc, debounce time.Duration, log logger.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if match == nil {
		match = func(string) bool { return true }
	}
	if debounce < 0 {
		debounce = 0
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Watcher{
		fsw:         fsw,
		dir:         dir,
		match:       match,
		debounceDur: debounce,
		debounceMap: make(map[string]time.Time),
		changes:     make(chan []string, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		now:         time.Now,
		logger:      log.WithField("component", "watcher"),
	}, nil
}

// Changes delivers settled changes. A batch that arrives while the previous
// one is still unread is merged into it.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	logger.LogComponentStart(w.logger, "watcher", map[string]interface{}{
		"directory": w.dir,
		"debounce":  w.debounceDur,
	})

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
// It is safe to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.fsw.Close(); err != nil {
		w.logger.WithError(err).Error("Error closing file watcher")
	}
}

// Stats returns a copy of the activity counters
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval(w.debounceDur))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.LogComponentStop(w.logger, "watcher", "context cancelled")
			return

		case <-w.stopCh:
			logger.LogComponentStop(w.logger, "watcher", "stopped")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("File watcher error")
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush()
		}
	}
}

func tickInterval(debounce time.Duration) time.Duration {
	if t := debounce / 4; t > minTick {
		return t
	}
	return minTick
}

// handleEvent records a change to a save file for later delivery
func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "remove"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	name := filepath.Base(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.match(name) {
		w.stats.Ignored++
		return
	}

	w.stats.LastEventTime = w.now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	switch eventType {
	case "create":
		w.stats.Created++
	case "modify":
		w.stats.Modified++
	default:
		w.stats.Removed++
	}

	w.debounceMap[name] = w.now()
}

// flush delivers every name whose last event is older than the debounce window
func (w *Watcher) flush() {
	w.mu.Lock()
	now := w.now()
	var settled []string
	for name, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, name)
			delete(w.debounceMap, name)
		}
	}
	if len(settled) > 0 {
		w.stats.Triggers++
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)

	w.logger.DebugWithFields("Save files changed", map[string]interface{}{
		"files": settled,
	})
	w.deliver(settled)
}

// deliver sends names without blocking the event loop
func (w *Watcher) deliver(names []string) {
	for {
		select {
		case w.changes <- names:
			return
		default:
		}

		// the consumer is behind; fold the unread batch into this one
		select {
		case pending := <-w.changes:
			names = mergeNames(pending, names)
		default:
		}
	}
}

func mergeNames(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, n := range list {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
