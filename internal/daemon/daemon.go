package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/minimalistui/internal/config"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/installer"
	"github.com/jmylchreest/minimalistui/internal/lifecycle"
	"github.com/jmylchreest/minimalistui/internal/model"
)

// Controller is the subset of the lifecycle controller the daemon drives.
type Controller interface {
	SetupWithConfig(ctx context.Context, hostConfig map[string]any) bool
	SetupWithEntry(ctx context.Context, entry host.ConfigEntry) bool
	OptionsUpdated(ctx context.Context, entry host.ConfigEntry) bool
	RemoveEntry(ctx context.Context, entry host.ConfigEntry) bool
}

// Daemon runs the integration for as long as its context lives.
type Daemon struct {
	mu     sync.Mutex
	logger *slog.Logger

	cfg     *config.Config
	ctrl    Controller
	host    host.Host
	entries *host.FileEntries

	// known maps entry id to the last seen UpdatedAt.
	known map[string]time.Time

	hostConfig *HostConfigWatcher
	entryFile  *FileWatcher
	actions    *DirWatcher
}

// New creates a daemon. entries is the file-backed entry store the CLI writes to.
func New(cfg *config.Config, ctrl Controller, h host.Host, entries *host.FileEntries, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		logger:  logger,
		cfg:     cfg,
		ctrl:    ctrl,
		host:    h,
		entries: entries,
		known:   make(map[string]time.Time),
	}
}

// Run performs the initial setup, starts the watchers and blocks until ctx
// is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Start performs the initial setup and starts the watchers.
func (d *Daemon) Start(ctx context.Context) error {
	hostConfigPath := config.HostConfigPath(d.cfg.ConfigRoot)
	hostConfig, err := config.LoadHostConfig(hostConfigPath)
	if err != nil {
		return err
	}

	if !d.ctrl.SetupWithConfig(ctx, hostConfig) {
		d.logger.Warn("setup from host config failed")
	}
	d.syncEntries(ctx)

	poll := d.cfg.Daemon.PollInterval.Or(config.DefaultPollInterval)

	d.hostConfig = NewHostConfigWatcher(hostConfigPath, d.logger.With("watcher", "host-config"))
	d.hostConfig.SetPollInterval(poll)
	d.hostConfig.SetReloadCallback(func(hostConfig map[string]any) {
		d.ctrl.SetupWithConfig(ctx, hostConfig)
	})
	if err := d.hostConfig.Start(ctx); err != nil {
		return fmt.Errorf("watch host config: %w", err)
	}

	d.entryFile = NewFileWatcher(d.entries.Path(), d.logger.With("watcher", "entries"))
	d.entryFile.SetPollInterval(poll)
	d.entryFile.SetChangeCallback(func() { d.syncEntries(ctx) })
	if err := d.entryFile.Start(ctx); err != nil {
		return fmt.Errorf("watch config entries: %w", err)
	}

	if d.cfg.Daemon.WatchCustomActions {
		if err := d.watchCustomActions(ctx); err != nil {
			// The directory appears with the first install.
			d.logger.Warn("not watching custom actions", "error", err)
		}
	}

	d.logger.Info("daemon started", "config_root", d.cfg.ConfigRoot)
	return nil
}

// Stop stops all watchers.
func (d *Daemon) Stop() {
	if d.hostConfig != nil {
		d.hostConfig.Stop()
	}
	if d.entryFile != nil {
		d.entryFile.Stop()
	}
	if d.actions != nil {
		if err := d.actions.Stop(); err != nil {
			d.logger.Debug("failed to stop custom actions watcher", "error", err)
		}
	}
	d.logger.Info("daemon stopped")
}

func (d *Daemon) watchCustomActions(ctx context.Context) error {
	dir := d.host.Files.Path(installer.CustomActionsDir)
	onChange := func() {
		if err := d.host.Services.CallService(ctx, model.Domain, lifecycle.ServiceReload, nil); err != nil {
			if errors.Is(err, host.ErrServiceNotFound) {
				d.logger.Debug("reload service not registered, skipping custom actions sync")
				return
			}
			d.logger.Warn("failed to sync custom actions", "error", err)
		}
	}

	w, err := NewDirWatcher(dir, d.cfg.Daemon.Debounce.Duration(), onChange, d.logger.With("watcher", "custom-actions"))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	d.actions = w
	return nil
}

// syncEntries compares the stored entries with the last seen set and calls
// the matching hook for every added, changed or removed entry.
func (d *Daemon) syncEntries(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.entries.Entries(ctx, model.Domain)
	if err != nil {
		d.logger.Warn("failed to read config entries", "error", err)
		return
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.EntryID] = true
		last, ok := d.known[entry.EntryID]
		switch {
		case !ok:
			d.logger.Debug("config entry added", "entry_id", entry.EntryID)
			d.ctrl.SetupWithEntry(ctx, entry)
			// Failed entries are retried once their options change.
			if entry.Source != host.SourceImport {
				d.known[entry.EntryID] = entry.UpdatedAt
			}
		case entry.UpdatedAt.After(last):
			d.logger.Debug("config entry options changed", "entry_id", entry.EntryID)
			d.ctrl.OptionsUpdated(ctx, entry)
			d.known[entry.EntryID] = entry.UpdatedAt
		}
	}

	for id := range d.known {
		if seen[id] {
			continue
		}
		d.logger.Debug("config entry removed", "entry_id", id)
		d.ctrl.RemoveEntry(ctx, host.ConfigEntry{EntryID: id, Domain: model.Domain})
		delete(d.known, id)
	}
}
