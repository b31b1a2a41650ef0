// Package lifecycle owns the enable/disable state of the integration and runs
// the setup sequence in response to host lifecycle events.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/minimalistui/internal/dashboard"
	"github.com/jmylchreest/minimalistui/internal/deps"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/installer"
	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/worker"
)

// ServiceReload is the service registered under model.Domain once the assets
// are installed.
const ServiceReload = "reload"

// AuthFailedReason is the entry state reason shown for an invalid token.
const AuthFailedReason = "authentication failed"

// AssetInstaller installs the bundled assets.
type AssetInstaller interface {
	Install(ctx context.Context, cfg *model.Configuration) (*installer.Report, error)
	SyncCustomActions(ctx context.Context) (*installer.Report, error)
}

// DependencyChecker checks and registers front-end resources.
type DependencyChecker interface {
	Check(ctx context.Context, cfg *model.Configuration) (*deps.Report, error)
}

// PanelManager registers and removes the sidebar panel.
type PanelManager interface {
	Apply(ctx context.Context, cfg *model.Configuration) error
	Remove(ctx context.Context) error
}

// Controller reacts to host lifecycle hooks. Hooks are serialized; the
// controller is the only writer of the configuration record and status.
type Controller struct {
	mu     sync.Mutex
	logger *slog.Logger

	host      host.Host
	installer AssetInstaller
	checker   DependencyChecker
	panels    PanelManager

	record *model.Configuration
	status model.SystemStatus
	state  model.State

	lastEvent   model.Event
	lastSetupAt time.Time
	lastErr     error

	onChange func(model.Snapshot)
}

// New creates a controller in the Uninitialized state.
func New(h host.Host, inst AssetInstaller, checker DependencyChecker, panels PanelManager, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger:    logger,
		host:      h,
		installer: inst,
		checker:   checker,
		panels:    panels,
		record:    model.NewConfiguration(),
		state:     model.StateUninitialized,
	}
}

// NewDefault creates a controller wired to the standard installer,
// dependency checker and dashboard registrar.
func NewDefault(h host.Host, bundle fs.FS, integrationDir string, w *worker.Worker, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	inst := installer.New(bundle, h.Files, h.Bus, w, integrationDir, logger.With("component", "installer"))
	checker := deps.New(h.Files, h.Resources, inst.IntegrationDir(), logger.With("component", "deps"))
	panels := dashboard.New(h.Panels, logger.With("component", "dashboard"))
	return New(h, inst, checker, panels, logger.With("component", "lifecycle"))
}

// OnChange sets a function called with a fresh snapshot after every hook.
// fn runs with the controller locked and must not call back into it.
func (c *Controller) OnChange(fn func(model.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetupWithConfig handles setup from the host's static configuration.
// It succeeds without doing anything when the configuration has no
// minimalist_ui section or the record is already backed by a config entry.
func (c *Controller) SetupWithConfig(ctx context.Context, hostConfig map[string]any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	section, ok := hostConfig[model.Domain]
	if !ok {
		return true
	}
	if c.record.Provenance == model.ProvenanceEntry {
		c.logger.Debug("config entry in use, ignoring static configuration")
		return true
	}
	if section == nil {
		section = map[string]any{}
	}

	c.lastEvent = model.EventSetup
	if err := c.record.UpdateFromMap(model.ProvenanceFile, section); err != nil {
		c.fail(ctx, "configure", err)
		return false
	}
	return c.run(ctx)
}

// SetupWithEntry handles setup from a config entry. Imported entries are
// removed from the host and reported as failed.
func (c *Controller) SetupWithEntry(ctx context.Context, entry host.ConfigEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	return c.setupEntry(ctx, entry, model.EventSetup)
}

// OptionsUpdated is the update listener for config entry options.
func (c *Controller) OptionsUpdated(ctx context.Context, entry host.ConfigEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	return c.setupEntry(ctx, entry, model.EventOptionsChanged)
}

// ReloadEntry re-runs setup for entry.
func (c *Controller) ReloadEntry(ctx context.Context, entry host.ConfigEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	return c.setupEntry(ctx, entry, model.EventReload)
}

// RemoveEntry tears the integration down: the panel and the reload service
// are unregistered and the record is reset.
func (c *Controller) RemoveEntry(ctx context.Context, entry host.ConfigEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	c.logger.Info("removing integration", "entry_id", entry.EntryID)
	return c.teardown(ctx)
}

// Reload re-runs the setup sequence with the current record. After a
// removal it starts from the default configuration.
func (c *Controller) Reload(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	c.lastEvent = model.EventReload
	return c.run(ctx)
}

// Disable disables the integration with reason. An invalid token also marks
// the backing config entry as failed.
func (c *Controller) Disable(ctx context.Context, reason model.DisabledReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	c.disable(ctx, reason)
}

// Restore loads a persisted snapshot into an uninitialized controller so a
// new process continues where the previous one stopped. The reload service
// is registered again when the snapshot is enabled.
func (c *Controller) Restore(s model.Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != model.StateUninitialized || s.Configuration == nil {
		return false
	}

	c.record = s.Configuration.Clone()
	c.state = s.State
	c.status = model.SystemStatus{
		Running:        s.State == model.StateEnabled,
		DisabledReason: s.DisabledReason,
	}
	c.lastEvent = s.LastEvent
	c.lastSetupAt = s.LastSetupAt
	c.lastErr = nil
	if s.LastError != "" {
		c.lastErr = errors.New(s.LastError)
	}
	if c.state == "" {
		c.state = model.StateUninitialized
	}
	if c.state == model.StateEnabled {
		c.registerService()
	}
	return true
}

// State returns the current lifecycle state.
func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current system status.
func (c *Controller) Status() model.SystemStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Configuration returns a copy of the current record.
func (c *Controller) Configuration() *model.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// Err returns the error of the last failed setup, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns the current lifecycle view.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() model.Snapshot {
	s := model.Snapshot{
		State:          c.state,
		DisabledReason: c.status.DisabledReason,
		Provenance:     c.record.Provenance,
		EntryID:        c.record.EntryID,
		LastEvent:      c.lastEvent,
		LastSetupAt:    c.lastSetupAt,
		Configuration:  c.record.Clone(),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.snapshot())
	}
}

func (c *Controller) setupEntry(ctx context.Context, entry host.ConfigEntry, event model.Event) bool {
	c.lastEvent = event

	if entry.Source == host.SourceImport {
		c.logger.Info("removing imported config entry", "entry_id", entry.EntryID)
		if err := c.host.Entries.RemoveEntry(ctx, entry.EntryID); err != nil && !errors.Is(err, host.ErrEntryNotFound) {
			c.logger.Error("failed to remove imported config entry", "entry_id", entry.EntryID, "error", err)
		}
		return false
	}

	if err := c.record.UpdateFromMap(model.ProvenanceEntry, entry.Merged()); err != nil {
		c.fail(ctx, "configure", err)
		c.setEntryState(ctx, entry.EntryID, host.EntrySetupError, err.Error())
		return false
	}
	c.record.EntryID = entry.EntryID

	if !c.run(ctx) {
		c.setEntryState(ctx, entry.EntryID, host.EntrySetupError, c.lastErr.Error())
		return false
	}
	c.setEntryState(ctx, entry.EntryID, host.EntryLoaded, "")
	return true
}

func (c *Controller) setEntryState(ctx context.Context, entryID string, state host.EntryState, reason string) {
	if entryID == "" {
		return
	}
	if err := c.host.Entries.SetState(ctx, entryID, state, reason); err != nil {
		c.logger.Warn("failed to update config entry state", "entry_id", entryID, "state", state, "error", err)
	}
}

// run executes install, dependency check and dashboard registration in
// order and stops at the first failure.
func (c *Controller) run(ctx context.Context) bool {
	c.state = model.StateConfiguring
	c.lastErr = nil
	c.lastSetupAt = time.Now().UTC()
	cfg := c.record.Clone()

	c.logger.Debug("running setup", "event", c.lastEvent, "config_type", cfg.Provenance)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"install", func() error {
			if _, err := c.installer.Install(ctx, cfg); err != nil {
				return err
			}
			c.registerService()
			return nil
		}},
		{"dependencies", func() error {
			_, err := c.checker.Check(ctx, cfg)
			return err
		}},
		{"dashboard", func() error {
			return c.panels.Apply(ctx, cfg)
		}},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.fail(ctx, step.name, err)
			return false
		}
	}

	c.state = model.StateEnabled
	c.status.Running = true
	if c.status.Enable() {
		c.logger.Info("minimalist ui enabled")
	}
	return true
}

func (c *Controller) fail(ctx context.Context, step string, err error) {
	c.lastErr = fmt.Errorf("%w: %s: %w", model.ErrLoadFailure, step, err)
	c.logger.Error("setup step failed", "step", step, "error", err)
	c.disable(ctx, model.ReasonLoadFailure)
}

func (c *Controller) disable(ctx context.Context, reason model.DisabledReason) {
	c.state = model.StateDisabled
	c.status.Running = false
	if !c.status.Disable(reason) {
		return
	}
	c.logger.Warn("minimalist ui disabled", "reason", reason)
	if reason == model.ReasonInvalidToken && c.record.Provenance == model.ProvenanceEntry {
		c.setEntryState(ctx, c.record.EntryID, host.EntrySetupError, AuthFailedReason)
	}
}

func (c *Controller) registerService() {
	c.host.Services.RegisterService(model.Domain, ServiceReload, func(ctx context.Context, _ host.ServiceCall) error {
		_, err := c.installer.SyncCustomActions(ctx)
		return err
	})
}

func (c *Controller) teardown(ctx context.Context) bool {
	c.lastEvent = model.EventRemoval

	ok := true
	if err := c.panels.Remove(ctx); err != nil {
		c.logger.Error("failed to remove dashboard", "error", err)
		ok = false
	}
	c.host.Services.RemoveService(model.Domain, ServiceReload)

	c.record = model.NewConfiguration()
	c.status = model.SystemStatus{}
	c.state = model.StateUninitialized
	c.lastErr = nil
	return ok
}
