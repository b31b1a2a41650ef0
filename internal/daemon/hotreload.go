package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/minimalistui/internal/config"
)

// FileWatcher polls a file's modification time and invokes a callback when
// it changes.
type FileWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	path         string
	lastModTime  time.Time
	pollInterval time.Duration

	onChangeCallback func()

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, logger *slog.Logger) *FileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		logger:       logger,
		path:         path,
		pollInterval: config.DefaultPollInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *FileWatcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback to invoke when the file changes.
func (w *FileWatcher) SetChangeCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins watching the file for changes.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true

	if info, err := os.Stat(w.path); err == nil {
		w.lastModTime = info.ModTime()
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("file watcher started", "path", w.path, "interval", interval)
	return nil
}

// Stop stops watching the file.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("file watcher stopped", "path", w.path)
}

func (w *FileWatcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges reports whether the file changed since the last check and
// invokes the callback if it did.
func (w *FileWatcher) checkForChanges() bool {
	w.mu.RLock()
	callback := w.onChangeCallback
	lastModTime := w.lastModTime
	w.mu.RUnlock()

	info, err := os.Stat(w.path)
	if err != nil {
		// File might not exist yet or was deleted
		if !os.IsNotExist(err) {
			w.logger.Debug("failed to stat file", "path", w.path, "error", err)
		}
		return false
	}

	modTime := info.ModTime()
	if !modTime.After(lastModTime) {
		return false
	}

	w.mu.Lock()
	w.lastModTime = modTime
	w.mu.Unlock()

	w.logger.Debug("file changed", "path", w.path, "modTime", modTime)
	if callback != nil {
		callback()
	}
	return true
}

// HostConfigWatcher watches the host's configuration.yaml and hands every
// successfully parsed version to a callback.
type HostConfigWatcher struct {
	*FileWatcher

	mu      sync.RWMutex
	current map[string]any

	onReloadCallback func(hostConfig map[string]any)
	onErrorCallback  func(err error)
}

// NewHostConfigWatcher creates a watcher for the configuration.yaml at path.
func NewHostConfigWatcher(path string, logger *slog.Logger) *HostConfigWatcher {
	w := &HostConfigWatcher{FileWatcher: NewFileWatcher(path, logger)}
	w.SetChangeCallback(w.reload)
	return w
}

// SetReloadCallback sets the callback invoked with the parsed configuration.
func (w *HostConfigWatcher) SetReloadCallback(callback func(hostConfig map[string]any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback invoked when the file fails to parse.
func (w *HostConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Current returns the last successfully parsed configuration.
func (w *HostConfigWatcher) Current() map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *HostConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	hostConfig, err := config.LoadHostConfig(w.path)
	if err != nil {
		w.logger.Warn("host config changed but failed to parse", "path", w.path, "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.current = hostConfig
	w.mu.Unlock()

	w.logger.Info("host config reloaded", "path", w.path)
	if reloadCallback != nil {
		reloadCallback(hostConfig)
	}
}
