package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/minimalistui/internal/config"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run setup from configuration.yaml and config entries",
	Long: `Run the setup hooks the host runs at start-up.

The minimalist_ui section of <config_root>/configuration.yaml is applied
first. Every config entry of the integration is then set up in turn; once
an entry is in use, the static configuration is ignored.`,
	RunE: runSetup,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-run the setup sequence with the current configuration",
	Long: `Re-run install, dependency check and dashboard registration with the
current configuration. After a removal, reload starts from the defaults.`,
	RunE: runReload,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the integration",
	Long: `Remove the dashboard panel and the reload service, and delete the
backing config entry. Installed files are left in place.`,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(removeCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	hostConfig, err := config.LoadHostConfig(config.HostConfigPath(cfg.ConfigRoot))
	if err != nil {
		return err
	}

	if !rt.ctrl.SetupWithConfig(ctx, hostConfig) {
		return rt.result(false)
	}

	entries, err := rt.host.Entries.Entries(ctx, model.Domain)
	if err != nil {
		return fmt.Errorf("failed to read config entries: %w", err)
	}
	for _, entry := range entries {
		if !rt.ctrl.SetupWithEntry(ctx, entry) && entry.Source != host.SourceImport {
			return rt.result(false)
		}
	}

	return printState(cmd, rt)
}

func runReload(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.result(rt.ctrl.Reload(cmd.Context())); err != nil {
		return err
	}
	return printState(cmd, rt)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	entry, err := backingEntry(ctx, rt)
	if err != nil {
		return err
	}
	if entry.EntryID != "" {
		if err := rt.host.Entries.RemoveEntry(ctx, entry.EntryID); err != nil {
			return fmt.Errorf("failed to remove config entry: %w", err)
		}
	}

	if !rt.ctrl.RemoveEntry(ctx, entry) {
		return fmt.Errorf("removal incomplete, see log")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Minimalist UI removed")
	return nil
}

// backingEntry returns the config entry the current configuration comes
// from, or a zero entry when none is in use.
func backingEntry(ctx context.Context, rt *runtime) (host.ConfigEntry, error) {
	current := rt.ctrl.Configuration()
	if current.Provenance != model.ProvenanceEntry || current.EntryID == "" {
		return host.ConfigEntry{}, nil
	}
	entry, err := rt.host.Entries.Entry(ctx, current.EntryID)
	if err != nil {
		return host.ConfigEntry{}, fmt.Errorf("failed to read config entry: %w", err)
	}
	return entry, nil
}

func printState(cmd *cobra.Command, rt *runtime) error {
	snap := rt.ctrl.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Minimalist UI: %s\n", renderState(snap.State, snap.DisabledReason))
	return nil
}
