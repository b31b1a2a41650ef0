// Package dashboard registers the Minimalist UI sidebar panel.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
)

const (
	// URLPath is the dashboard url the panel is registered under.
	URLPath = "minimalist-ui"
	// Mode is the dashboard storage mode.
	Mode = "yaml"
)

// Filename is the dashboard definition, relative to the configuration root.
var Filename = path.Join(model.Domain, "dashboard", "ui.yaml")

// PanelFor builds the panel definition for cfg.
func PanelFor(cfg *model.Configuration) host.Panel {
	return host.Panel{
		URLPath:       URLPath,
		Mode:          Mode,
		Title:         cfg.SidepanelTitle,
		Icon:          cfg.SidepanelIcon,
		Filename:      Filename,
		ShowInSidebar: true,
		RequireAdmin:  false,
	}
}

// Registrar keeps the host's panel registry in line with the configuration.
type Registrar struct {
	logger *slog.Logger
	panels host.PanelRegistry
}

// New creates a registrar.
func New(panels host.PanelRegistry, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{logger: logger, panels: panels}
}

// Apply registers (or replaces) the panel when the sidepanel is enabled and
// removes a registered panel otherwise.
func (r *Registrar) Apply(ctx context.Context, cfg *model.Configuration) error {
	if cfg.SidepanelEnabled {
		panel := PanelFor(cfg)
		if err := r.panels.RegisterPanel(ctx, panel); err != nil {
			return fmt.Errorf("register panel %s: %w", URLPath, err)
		}
		r.logger.Debug("registered dashboard", "url_path", URLPath, "title", panel.Title)
		return nil
	}
	return r.Remove(ctx)
}

// Remove unregisters the panel if it is registered.
func (r *Registrar) Remove(ctx context.Context) error {
	_, ok, err := r.panels.Panel(ctx, URLPath)
	if err != nil {
		return fmt.Errorf("look up panel %s: %w", URLPath, err)
	}
	if !ok {
		return nil
	}
	if err := r.panels.RemovePanel(ctx, URLPath); err != nil {
		return fmt.Errorf("remove panel %s: %w", URLPath, err)
	}
	r.logger.Debug("removed dashboard", "url_path", URLPath)
	return nil
}
