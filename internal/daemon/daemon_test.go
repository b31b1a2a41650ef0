package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/minimalistui/internal/config"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
)

type call struct {
	hook    string
	entryID string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(hook, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{hook, id})
	return true
}

func (r *recorder) SetupWithConfig(_ context.Context, hostConfig map[string]any) bool {
	if _, ok := hostConfig[model.Domain]; !ok {
		return true
	}
	return r.add("config", "")
}

func (r *recorder) SetupWithEntry(_ context.Context, e host.ConfigEntry) bool {
	return r.add("setup", e.EntryID)
}

func (r *recorder) OptionsUpdated(_ context.Context, e host.ConfigEntry) bool {
	return r.add("options", e.EntryID)
}

func (r *recorder) RemoveEntry(_ context.Context, e host.ConfigEntry) bool {
	return r.add("remove", e.EntryID)
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func newDaemon(t *testing.T) (*Daemon, *recorder, *host.FileEntries, string) {
	t.Helper()

	root := t.TempDir()
	storage := host.NewStorage(root)
	cfg := config.DefaultConfig()
	cfg.ConfigRoot = root
	cfg.Daemon.WatchCustomActions = false

	h := host.Host{
		Entries:   storage.Entries(),
		Panels:    storage.Panels(),
		Resources: storage.Resources(),
		Bus:       host.NewBus(nil),
		Services:  host.NewServices(),
		Files:     host.NewLocalStore(root),
	}
	rec := &recorder{}
	return New(cfg, rec, h, storage.Entries(), nil), rec, storage.Entries(), root
}

func TestSyncEntries_AddChangeRemove(t *testing.T) {
	d, rec, entries, _ := newDaemon(t)
	ctx := context.Background()

	entry, err := entries.CreateEntry(ctx, host.NewConfigEntry(model.Domain, "", host.SourceUser, nil))
	require.NoError(t, err)

	d.syncEntries(ctx)
	d.syncEntries(ctx) // unchanged entries are left alone

	// State updates don't count as changes.
	require.NoError(t, entries.SetState(ctx, entry.EntryID, host.EntryLoaded, ""))
	d.syncEntries(ctx)

	_, err = entries.UpdateOptions(ctx, entry.EntryID, map[string]any{"theme": "minimalist-mobile"})
	require.NoError(t, err)
	d.syncEntries(ctx)

	require.NoError(t, entries.RemoveEntry(ctx, entry.EntryID))
	d.syncEntries(ctx)

	assert.Equal(t, []call{
		{"setup", entry.EntryID},
		{"options", entry.EntryID},
		{"remove", entry.EntryID},
	}, rec.snapshot())
}

func TestSyncEntries_ImportedEntriesAreNotTracked(t *testing.T) {
	d, rec, entries, _ := newDaemon(t)
	ctx := context.Background()

	entry, err := entries.CreateEntry(ctx, host.NewConfigEntry(model.Domain, "", host.SourceImport, nil))
	require.NoError(t, err)
	d.syncEntries(ctx)
	require.NoError(t, entries.RemoveEntry(ctx, entry.EntryID))
	d.syncEntries(ctx)

	assert.Equal(t, []call{{"setup", entry.EntryID}}, rec.snapshot())
}

func TestStart_SetsUpFromHostConfigAndEntries(t *testing.T) {
	d, rec, entries, root := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, os.WriteFile(config.HostConfigPath(root), []byte("minimalist_ui:\n  sidepanel_title: Home\n"), 0644))
	entry, err := entries.CreateEntry(ctx, host.NewConfigEntry(model.Domain, "", host.SourceUser, nil))
	require.NoError(t, err)

	require.NoError(t, d.Start(ctx))
	d.Stop()

	assert.Equal(t, []call{{"config", ""}, {"setup", entry.EntryID}}, rec.snapshot())
}

func touch(t *testing.T, path string, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestFileWatcher_CheckForChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.json")
	base := time.Now().Add(-time.Hour)

	var calls atomic.Int32
	w := NewFileWatcher(path, nil)
	w.SetChangeCallback(func() { calls.Add(1) })

	assert.False(t, w.checkForChanges(), "missing file")

	touch(t, path, "{}", base)
	assert.True(t, w.checkForChanges())
	assert.False(t, w.checkForChanges())

	touch(t, path, "{}", base.Add(time.Minute))
	assert.True(t, w.checkForChanges())
	assert.Equal(t, int32(2), calls.Load())
}

func TestFileWatcher_StartStop(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "x"), nil)
	w.SetPollInterval(10 * time.Millisecond)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestHostConfigWatcher_Reload(t *testing.T) {
	path := config.HostConfigPath(t.TempDir())
	w := NewHostConfigWatcher(path, nil)

	var got map[string]any
	var gotErr error
	w.SetReloadCallback(func(c map[string]any) { got = c })
	w.SetErrorCallback(func(err error) { gotErr = err })

	touch(t, path, "minimalist_ui:\n  theme: minimalist-mobile\n", time.Now().Add(-time.Minute))
	require.True(t, w.checkForChanges())
	require.NotNil(t, got)
	assert.Equal(t, "minimalist-mobile", got["minimalist_ui"].(map[string]any)["theme"])
	assert.Equal(t, got, w.Current())

	touch(t, path, "minimalist_ui: [unclosed\n", time.Now())
	require.True(t, w.checkForChanges())
	assert.Error(t, gotErr)
	assert.Equal(t, got, w.Current())
}

func TestDirWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w, err := NewDirWatcher(dir, 100*time.Millisecond, func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "custom_actions.yaml"), []byte{byte('a' + i)}, 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDirWatcher_MissingDirectory(t *testing.T) {
	w, err := NewDirWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond, func() {}, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
}
