package options

import (
	"context"
	"fmt"

	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
)

// ConfigFlow creates the single config entry for the integration.
type ConfigFlow struct {
	entries host.ConfigSource
}

// NewConfigFlow creates a config flow backed by entries.
func NewConfigFlow(entries host.ConfigSource) *ConfigFlow {
	return &ConfigFlow{entries: entries}
}

// User runs the user step. It aborts with host.ErrSingleInstance when an
// entry already exists or the integration is running from static
// configuration.
func (f *ConfigFlow) User(ctx context.Context, running bool, input map[string]any) (host.ConfigEntry, error) {
	existing, err := f.entries.Entries(ctx, model.Domain)
	if err != nil {
		return host.ConfigEntry{}, fmt.Errorf("list entries: %w", err)
	}
	if len(existing) > 0 || running {
		return host.ConfigEntry{}, host.ErrSingleInstance
	}

	entry, err := f.entries.CreateEntry(ctx, host.NewConfigEntry(model.Domain, "", host.SourceUser, input))
	if err != nil {
		return host.ConfigEntry{}, fmt.Errorf("create entry: %w", err)
	}
	return entry, nil
}

// Import creates an entry from static configuration. Setup removes imported
// entries again, so static configuration never becomes entry-backed.
func (f *ConfigFlow) Import(ctx context.Context, data map[string]any) (host.ConfigEntry, error) {
	entry, err := f.entries.CreateEntry(ctx, host.NewConfigEntry(model.Domain, "configuration.yaml", host.SourceImport, data))
	if err != nil {
		return host.ConfigEntry{}, fmt.Errorf("import entry: %w", err)
	}
	return entry, nil
}
