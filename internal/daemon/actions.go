package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches a directory with fsnotify and invokes a callback once
// writes have settled for the debounce interval.
type DirWatcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func()
	timer    *time.Timer
	done     chan struct{}
	running  bool
}

// NewDirWatcher creates a watcher for dir.
func NewDirWatcher(dir string, debounce time.Duration, onChange func(), logger *slog.Logger) (*DirWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DirWatcher{
		logger:   logger,
		watcher:  watcher,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (dw *DirWatcher) Start() error {
	dw.mu.Lock()
	if dw.running {
		dw.mu.Unlock()
		return nil
	}
	dw.running = true
	dw.mu.Unlock()

	if err := dw.watcher.Add(dw.dir); err != nil {
		return err
	}

	go dw.watch()
	dw.logger.Debug("directory watcher started", "path", dw.dir, "debounce", dw.debounce)
	return nil
}

func (dw *DirWatcher) watch() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				dw.logger.Debug("directory changed", "file", event.Name, "op", event.Op.String())
				dw.schedule()
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("directory watcher error", "error", err)

		case <-dw.done:
			return
		}
	}
}

func (dw *DirWatcher) schedule() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.running {
		return
	}
	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(dw.debounce, dw.onChange)
}

// Stop stops the directory watcher.
func (dw *DirWatcher) Stop() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.running {
		return nil
	}

	dw.running = false
	if dw.timer != nil {
		dw.timer.Stop()
	}
	close(dw.done)
	return dw.watcher.Close()
}
