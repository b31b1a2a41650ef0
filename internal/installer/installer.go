// Package installer copies the bundled dashboard assets into the host
// configuration directory.
package installer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/minimalistui/internal/assets"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/worker"
)

// ReloadEvent is fired on the host bus after every install or reload.
const ReloadEvent = "minimalist_ui_reload"

// Destination paths relative to the configuration root.
var (
	DashboardDir      = filepath.Join(model.Domain, "dashboard")
	DashboardFile     = filepath.Join(model.Domain, "dashboard", "ui.yaml")
	CustomActionsDir  = filepath.Join(model.Domain, "custom_actions")
	CustomActionsFile = filepath.Join(model.Domain, "custom_actions", "custom_actions.yaml")

	// Trees left behind by older releases, removed before every install.
	legacyDirs = []string{
		filepath.Join(model.Domain, "configs"),
		filepath.Join(model.Domain, "addons"),
	}
)

// DefaultIntegrationDir is where the integration lives below the configuration root.
var DefaultIntegrationDir = filepath.Join("custom_components", model.Domain)

// TemplatesDir returns the card templates directory for an integration directory.
func TemplatesDir(integrationDir string) string {
	return filepath.Join(integrationDir, "__ui_minimalist__", "mui_templates")
}

// Report describes the result of an install.
type Report struct {
	Written   []string // destination paths that were (over)written
	Preserved []string // user files that were left untouched
	Stats     host.CopyStats
}

func (r *Report) wrote(dst string, st host.CopyStats) {
	r.Written = append(r.Written, dst)
	r.Stats.Add(st)
}

// Installer copies bundled assets into an AssetStore.
type Installer struct {
	logger         *slog.Logger
	bundle         fs.FS
	files          host.AssetStore
	bus            host.EventBus
	worker         *worker.Worker
	integrationDir string
}

// New creates an installer. integrationDir may be relative to the
// configuration root; empty selects DefaultIntegrationDir.
func New(bundle fs.FS, files host.AssetStore, bus host.EventBus, w *worker.Worker, integrationDir string, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	if integrationDir == "" {
		integrationDir = DefaultIntegrationDir
	}
	return &Installer{
		logger:         logger,
		bundle:         bundle,
		files:          files,
		bus:            bus,
		worker:         w,
		integrationDir: integrationDir,
	}
}

// IntegrationDir returns the integration directory.
func (i *Installer) IntegrationDir() string { return i.integrationDir }

// TemplatesDir returns the card templates directory.
func (i *Installer) TemplatesDir() string { return TemplatesDir(i.integrationDir) }

// Install copies all asset groups for cfg and fires ReloadEvent.
// Files the user owns (the dashboard and custom actions) are only created
// when absent; everything else is overwritten.
func (i *Installer) Install(ctx context.Context, cfg *model.Configuration) (*Report, error) {
	report := &Report{}
	err := i.worker.Do(ctx, "install", func() error {
		return i.install(cfg, report)
	})
	if err != nil {
		return report, fmt.Errorf("install assets: %w", err)
	}

	i.logger.Info("installed assets",
		"written", len(report.Written),
		"preserved", len(report.Preserved),
		"size", humanize.Bytes(uint64(report.Stats.Bytes)))

	if err := i.bus.Fire(ctx, ReloadEvent, nil); err != nil {
		return report, fmt.Errorf("fire %s: %w", ReloadEvent, err)
	}
	return report, nil
}

func (i *Installer) install(cfg *model.Configuration, report *Report) error {
	for _, dir := range legacyDirs {
		if err := i.files.RemoveAll(dir); err != nil {
			i.logger.Debug("failed to remove legacy directory", "path", dir, "error", err)
		}
	}

	for _, dir := range []string{DashboardDir, CustomActionsDir, i.TemplatesDir()} {
		if err := i.files.MkdirAll(dir); err != nil {
			return err
		}
	}

	code, ok := assets.LanguageCode(cfg.Language)
	if !ok {
		return fmt.Errorf("%w: %q", model.ErrUnknownLanguage, cfg.Language)
	}

	templates := i.TemplatesDir()

	if err := i.copyFile(assets.DefaultLanguage, filepath.Join(templates, "default.yaml"), report); err != nil {
		return err
	}

	if cfg.SidepanelEnabled {
		if err := i.copyIfAbsent(assets.DashboardFile, DashboardFile, report); err != nil {
			return err
		}
	}

	if err := i.copyIfAbsent(assets.CustomActions, CustomActionsFile, report); err != nil {
		return err
	}

	if err := i.copyFile(assets.TranslationPath(code), filepath.Join(templates, "language.yaml"), report); err != nil {
		return err
	}

	if err := i.copyTree(i.bundle, assets.TemplatesDir, templates, report); err != nil {
		return err
	}

	if err := i.syncCustomActions(report); err != nil {
		return err
	}

	return i.copyTree(i.bundle, assets.ThemeFilesDir, cfg.ThemePath, report)
}

// SyncCustomActions copies the user's custom actions into the card templates
// and fires ReloadEvent. A missing custom actions directory is not an error.
func (i *Installer) SyncCustomActions(ctx context.Context) (*Report, error) {
	report := &Report{}
	if i.files.Exists(CustomActionsDir) {
		err := i.worker.Do(ctx, "sync-custom-actions", func() error {
			return i.syncCustomActions(report)
		})
		if err != nil {
			return report, fmt.Errorf("sync custom actions: %w", err)
		}
	}

	if err := i.bus.Fire(ctx, ReloadEvent, nil); err != nil {
		return report, fmt.Errorf("fire %s: %w", ReloadEvent, err)
	}
	return report, nil
}

func (i *Installer) syncCustomActions(report *Report) error {
	return i.copyTree(i.files.FS(CustomActionsDir), ".", filepath.Join(i.TemplatesDir(), "custom_actions"), report)
}

func (i *Installer) copyFile(src, dst string, report *Report) error {
	st, err := i.files.CopyFile(i.bundle, src, dst)
	if err != nil {
		return err
	}
	report.wrote(dst, st)
	return nil
}

func (i *Installer) copyIfAbsent(src, dst string, report *Report) error {
	if i.files.Exists(dst) {
		i.logger.Debug("keeping existing file", "path", dst)
		report.Preserved = append(report.Preserved, dst)
		return nil
	}
	return i.copyFile(src, dst, report)
}

func (i *Installer) copyTree(src fs.FS, srcDir, dst string, report *Report) error {
	st, err := i.files.CopyTree(src, path.Clean(srcDir), dst)
	if err != nil {
		return err
	}
	report.wrote(dst, st)
	return nil
}
