package paramtable

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a Store whenever one of its file sources changes.
// Editors often write a file several times in a row, so events are
// debounced and a single reload covers the burst.
type Watcher struct {
	store    *Store
	sources  []Source
	files    map[string]bool
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending bool
	lastEvt time.Time
	reloads int
	started bool
	stopped bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher watches the directories of every FileSource in sources. The
// full source list is reloaded on change, so non-file sources stay part of
// the snapshot.
func NewWatcher(store *Store, sources []Source, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    store,
		sources:  sources,
		files:    make(map[string]bool),
		watcher:  fw,
		debounce: debounce,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, src := range sources {
		fs, ok := src.(FileSource)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(fs.Path())
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	if len(w.files) == 0 {
		fw.Close()
		return nil, fmt.Errorf("no file sources to watch")
	}

	// Watch directories rather than files: atomic saves replace the inode.
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Start runs the event loop until ctx is done or Stop is called. Only the
// first call has an effect, and Start after Stop does nothing.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run(ctx)
}

// Stop ends the event loop and releases the fsnotify watcher. It is safe to
// call more than once, concurrently, and without a prior Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		started := w.started
		w.stopped = true
		w.mu.Unlock()

		close(w.stopCh)
		if !started {
			w.watcher.Close()
			close(w.doneCh)
		}
	})
	<-w.doneCh
}

// Reloads returns how many reloads the watcher has attempted.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(evt)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("table watcher error", zap.Error(err))
		case <-tick.C:
			w.maybeReload(ctx)
		}
	}
}

func (w *Watcher) handleEvent(evt fsnotify.Event) {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(evt.Name)
	if err != nil || !w.files[abs] {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.lastEvt = time.Now()
	w.mu.Unlock()
	w.logger.Debug("table source changed", zap.String("file", abs), zap.String("op", evt.Op.String()))
}

func (w *Watcher) maybeReload(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvt) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.reloads++
	w.mu.Unlock()

	// A failed reload keeps the previous snapshot serving.
	if err := w.store.Load(ctx, w.sources...); err != nil {
		w.logger.Error("parameter table reload failed; keeping previous tables", zap.Error(err))
	}
}
