package installer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/minimalistui/internal/assets"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/worker"
)

type fixture struct {
	root      string
	installer *Installer
	events    []host.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{root: t.TempDir()}
	bus := host.NewBus(nil)
	bus.Subscribe(ReloadEvent, func(e host.Event) { f.events = append(f.events, e) })

	w := worker.New(nil)
	t.Cleanup(w.Stop)

	f.installer = New(assets.Embedded(), host.NewLocalStore(f.root), bus, w, "", nil)
	return f
}

func (f *fixture) path(elem ...string) string {
	return filepath.Join(append([]string{f.root}, elem...)...)
}

// snapshot returns every file below root keyed by relative path.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func bundled(t *testing.T, name string) string {
	t.Helper()
	data, err := assets.ReadFile(assets.Embedded(), name)
	require.NoError(t, err)
	return string(data)
}

func TestInstall_FreshTree(t *testing.T) {
	f := newFixture(t)
	cfg := model.NewConfiguration()

	report, err := f.installer.Install(context.Background(), cfg)
	require.NoError(t, err)

	ui, err := os.ReadFile(f.path("minimalist_ui", "dashboard", "ui.yaml"))
	require.NoError(t, err)
	assert.Equal(t, bundled(t, assets.DashboardFile), string(ui))

	actions, err := os.ReadFile(f.path("minimalist_ui", "custom_actions", "custom_actions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, bundled(t, assets.CustomActions), string(actions))

	templates := f.path("custom_components", "minimalist_ui", "__ui_minimalist__", "mui_templates")
	assert.FileExists(t, filepath.Join(templates, "default.yaml"))
	assert.FileExists(t, filepath.Join(templates, "language.yaml"))
	assert.FileExists(t, filepath.Join(templates, "cards", "card_title.yaml"))
	assert.FileExists(t, filepath.Join(templates, "custom_actions", "custom_actions.yaml"))

	lang, err := os.ReadFile(filepath.Join(templates, "language.yaml"))
	require.NoError(t, err)
	assert.Equal(t, bundled(t, assets.TranslationPath("en")), string(lang))

	assert.FileExists(t, f.path("themes", "minimalist-desktop.yaml"))
	assert.FileExists(t, f.path("themes", "minimalist-mobile.yaml"))

	assert.Len(t, f.events, 1)
	assert.Empty(t, report.Preserved)
	assert.Positive(t, report.Stats.Files)
	assert.Positive(t, report.Stats.Bytes)
}

func TestInstall_Idempotent(t *testing.T) {
	f := newFixture(t)
	cfg := model.NewConfiguration()

	_, err := f.installer.Install(context.Background(), cfg)
	require.NoError(t, err)
	first := snapshot(t, f.root)

	report, err := f.installer.Install(context.Background(), cfg)
	require.NoError(t, err)
	second := snapshot(t, f.root)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{DashboardFile, CustomActionsFile}, report.Preserved)
	assert.Len(t, f.events, 2)
}

func TestInstall_PreservesUserFiles(t *testing.T) {
	f := newFixture(t)

	custom := "title: My own dashboard\n"
	actions := "my_action:\n  tap_action:\n    action: toggle\n"
	require.NoError(t, os.MkdirAll(f.path("minimalist_ui", "dashboard"), 0755))
	require.NoError(t, os.MkdirAll(f.path("minimalist_ui", "custom_actions"), 0755))
	require.NoError(t, os.WriteFile(f.path("minimalist_ui", "dashboard", "ui.yaml"), []byte(custom), 0644))
	require.NoError(t, os.WriteFile(f.path("minimalist_ui", "custom_actions", "custom_actions.yaml"), []byte(actions), 0644))

	_, err := f.installer.Install(context.Background(), model.NewConfiguration())
	require.NoError(t, err)

	ui, err := os.ReadFile(f.path("minimalist_ui", "dashboard", "ui.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(ui))

	got, err := os.ReadFile(f.path("minimalist_ui", "custom_actions", "custom_actions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, actions, string(got))

	// The user's actions are synced into the templates.
	synced, err := os.ReadFile(f.path(f.installer.TemplatesDir(), "custom_actions", "custom_actions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, actions, string(synced))
}

func TestInstall_OverwritesTemplatesAndThemes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.installer.Install(ctx, model.NewConfiguration())
	require.NoError(t, err)

	theme := f.path("themes", "minimalist-desktop.yaml")
	card := f.path(TemplatesDir(DefaultIntegrationDir), "cards", "card_title.yaml")
	require.NoError(t, os.WriteFile(theme, []byte("edited"), 0644))
	require.NoError(t, os.WriteFile(card, []byte("edited"), 0644))

	_, err = f.installer.Install(ctx, model.NewConfiguration())
	require.NoError(t, err)

	data, err := os.ReadFile(theme)
	require.NoError(t, err)
	assert.Equal(t, bundled(t, "dashboard/themefiles/minimalist-desktop.yaml"), string(data))

	data, err = os.ReadFile(card)
	require.NoError(t, err)
	assert.Equal(t, bundled(t, "dashboard/mui_templates/cards/card_title.yaml"), string(data))
}

func TestInstall_SidepanelDisabledSkipsDashboard(t *testing.T) {
	f := newFixture(t)
	cfg := model.NewConfiguration()
	cfg.SidepanelEnabled = false

	_, err := f.installer.Install(context.Background(), cfg)
	require.NoError(t, err)

	assert.NoFileExists(t, f.path("minimalist_ui", "dashboard", "ui.yaml"))
	assert.DirExists(t, f.path("minimalist_ui", "dashboard"))
}

func TestInstall_CustomThemePath(t *testing.T) {
	f := newFixture(t)
	cfg := model.NewConfiguration()
	cfg.ThemePath = "themes/minimalist/"

	_, err := f.installer.Install(context.Background(), cfg)
	require.NoError(t, err)

	assert.FileExists(t, f.path("themes", "minimalist", "minimalist-mobile-tapbar.yaml"))
}

func TestInstall_RemovesLegacyDirectories(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.path("minimalist_ui", "configs", "old"), 0755))
	require.NoError(t, os.MkdirAll(f.path("minimalist_ui", "addons"), 0755))

	_, err := f.installer.Install(context.Background(), model.NewConfiguration())
	require.NoError(t, err)

	assert.NoDirExists(t, f.path("minimalist_ui", "configs"))
	assert.NoDirExists(t, f.path("minimalist_ui", "addons"))
}

func TestInstall_UnknownLanguage(t *testing.T) {
	f := newFixture(t)
	cfg := model.NewConfiguration()
	cfg.Language = "Klingon"

	_, err := f.installer.Install(context.Background(), cfg)
	assert.ErrorIs(t, err, model.ErrUnknownLanguage)
	assert.Empty(t, f.events)

	// Directories are created before the language is resolved.
	assert.DirExists(t, f.path("minimalist_ui", "dashboard"))
	assert.DirExists(t, f.path("minimalist_ui", "custom_actions"))
	assert.DirExists(t, f.path(f.installer.TemplatesDir()))
	assert.NoFileExists(t, f.path(f.installer.TemplatesDir(), "default.yaml"))
}

func TestInstall_FilesystemError(t *testing.T) {
	f := newFixture(t)

	// A file where a directory is expected makes mkdir fail.
	require.NoError(t, os.WriteFile(f.path("minimalist_ui"), []byte("not a dir"), 0644))

	_, err := f.installer.Install(context.Background(), model.NewConfiguration())
	var fsErr *model.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "mkdir", fsErr.Op)
	assert.Empty(t, f.events)
}

func TestSyncCustomActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.installer.Install(ctx, model.NewConfiguration())
	require.NoError(t, err)

	extra := "extra_action:\n  tap_action:\n    action: none\n"
	require.NoError(t, os.WriteFile(f.path("minimalist_ui", "custom_actions", "extra.yaml"), []byte(extra), 0644))

	_, err = f.installer.SyncCustomActions(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(f.path(TemplatesDir(DefaultIntegrationDir), "custom_actions", "extra.yaml"))
	require.NoError(t, err)
	assert.Equal(t, extra, string(data))
	assert.Len(t, f.events, 2)
}

func TestSyncCustomActions_MissingDirectoryStillFires(t *testing.T) {
	f := newFixture(t)

	report, err := f.installer.SyncCustomActions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Written)
	assert.Len(t, f.events, 1)
}
