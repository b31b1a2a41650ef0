// Package deps checks for the front-end resources the dashboard depends on.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
)

// ExtDependenciesURL is the static path the bundled card resources are served from.
const ExtDependenciesURL = "/minimalist_ui/ext_dependencies"

// BrowserModDir is the companion integration checked for below the config root.
var BrowserModDir = filepath.Join("custom_components", "browser_mod")

// Resources lists the front-end resource bundles the cards use.
var Resources = []string{
	"button-card",
	"light-entity-card",
	"lovelace-card-mod",
	"lovelace-auto-entities",
	"mini-graph-card",
	"mini-media-player",
	"my-cards",
	"simple-weather-card",
	"lovelace-layout-card",
	"lovelace-state-switch",
	"weather-radar-card",
}

// Report lists what the check found.
type Report struct {
	BrowserMod  bool
	Missing     []string // required but not installed
	Conflicting []string // installed although the bundled copy is in use
	ExtraJSURLs []string
}

// OK reports whether nothing needs the user's attention.
func (r *Report) OK() bool {
	return r.BrowserMod && len(r.Missing) == 0 && len(r.Conflicting) == 0
}

// Checker inspects the configuration tree for resource bundles.
type Checker struct {
	logger         *slog.Logger
	files          host.AssetStore
	resources      host.ResourceRegistry
	integrationDir string
	ids            []string
}

// New creates a checker for the fixed resource list.
func New(files host.AssetStore, resources host.ResourceRegistry, integrationDir string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		logger:         logger,
		files:          files,
		resources:      resources,
		integrationDir: integrationDir,
		ids:            Resources,
	}
}

// Inspect looks for the resources without registering anything.
func (c *Checker) Inspect(cfg *model.Configuration) *Report {
	report := &Report{BrowserMod: c.files.Exists(BrowserModDir)}

	for _, id := range c.ids {
		installed := c.files.Exists(filepath.Join(cfg.PluginPath, id))
		switch {
		case !cfg.IncludeOtherCards && !installed:
			report.Missing = append(report.Missing, id)
		case cfg.IncludeOtherCards && installed:
			report.Conflicting = append(report.Conflicting, id)
		}
	}
	return report
}

// Check logs missing or conflicting resources and registers the bundled
// resources with the host. Missing resources never fail the check; only a
// failed registration does.
func (c *Checker) Check(ctx context.Context, cfg *model.Configuration) (*Report, error) {
	c.logger.Debug("checking dependencies")

	report := c.Inspect(cfg)

	if !report.BrowserMod {
		c.logger.Error(`integration "browser_mod" is not installed`)
	}
	for _, id := range report.Missing {
		c.logger.Error("frontend resource is not installed, see integration configuration", "resource", id)
	}
	for _, id := range report.Conflicting {
		c.logger.Error("frontend resource is already installed, remove it or disable include_other_cards", "resource", id)
	}

	if cfg.IncludeOtherCards {
		for _, id := range c.ids {
			url := fmt.Sprintf("%s/%s/%s.js", ExtDependenciesURL, id, id)
			if err := c.resources.AddExtraJSURL(ctx, url); err != nil {
				return report, fmt.Errorf("register %s: %w", url, err)
			}
			report.ExtraJSURLs = append(report.ExtraJSURLs, url)
		}
	}

	sp := host.StaticPath{
		URLPath: ExtDependenciesURL,
		Dir:     c.files.Path(c.integrationDir, "ext_dependencies"),
		Cache:   true,
	}
	if err := c.resources.RegisterStaticPath(ctx, sp); err != nil {
		return report, fmt.Errorf("register static path %s: %w", sp.URLPath, err)
	}

	return report, nil
}
