package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/minimalistui/internal/dashboard"
	"github.com/jmylchreest/minimalistui/internal/deps"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/theme"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(16)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var statusOpts struct {
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the integration status",
	Long: `Show the lifecycle state, configuration source and dashboard panel as
last recorded under <config_root>/.storage.`,
	RunE: runStatus,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for the front-end resources the cards need",
	Long: `Look for browser_mod and the card resources below plugin_path without
registering anything. Exits non-zero when something needs attention.`,
	RunE: runCheck,
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List theme options and theme files",
	RunE:  runThemes,
}

func init() {
	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false, "Output the status snapshot as JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(themesCmd)
}

func renderState(state model.State, reason model.DisabledReason) string {
	switch state {
	case model.StateEnabled:
		return okStyle.Render(string(state))
	case model.StateDisabled:
		return errStyle.Render(fmt.Sprintf("%s (%s)", state, reason))
	case model.StateConfiguring:
		return warnStyle.Render(string(state))
	default:
		return dimStyle.Render(string(model.StateUninitialized))
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

func runStatus(cmd *cobra.Command, args []string) error {
	storage := host.NewStorage(cfg.ConfigRoot)

	var snap model.Snapshot
	found, err := storage.LoadStatus(&snap)
	if err != nil {
		return fmt.Errorf("failed to load status: %w", err)
	}
	if !found {
		snap.State = model.StateUninitialized
	}

	out := cmd.OutOrStdout()
	if statusOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprintln(out, headerStyle.Render(model.Name))
	row(out, "State", renderState(snap.State, snap.DisabledReason))
	if snap.Provenance != model.ProvenanceUnset {
		source := string(snap.Provenance)
		if snap.EntryID != "" {
			source += " " + dimStyle.Render(snap.EntryID)
		}
		row(out, "Source", source)
	}
	if snap.LastEvent != "" {
		row(out, "Last event", string(snap.LastEvent))
	}
	if !snap.LastSetupAt.IsZero() {
		row(out, "Last setup", humanize.Time(snap.LastSetupAt))
	}
	if snap.LastError != "" {
		row(out, "Last error", errStyle.Render(snap.LastError))
	}
	if c := snap.Configuration; c != nil && snap.State != model.StateUninitialized {
		row(out, "Theme", c.Theme)
		row(out, "Theme path", c.ThemePath)
		row(out, "Language", c.Language)
	}

	panel, ok, err := storage.Panels().Panel(cmd.Context(), dashboard.URLPath)
	if err != nil {
		return err
	}
	if ok {
		row(out, "Dashboard", fmt.Sprintf("%s %s /%s", panel.Icon, panel.Title, panel.URLPath))
	} else {
		row(out, "Dashboard", dimStyle.Render("not registered"))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	current := rt.ctrl.Configuration()
	checker := deps.New(rt.host.Files, rt.host.Resources, cfg.IntegrationDir, logger)
	report := checker.Inspect(current)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Dependencies"))
	if report.BrowserMod {
		row(out, "browser_mod", okStyle.Render("installed"))
	} else {
		row(out, "browser_mod", errStyle.Render("missing"))
	}

	mode := "installed separately in " + current.PluginPath
	if current.IncludeOtherCards {
		mode = "bundled (include_other_cards)"
	}
	row(out, "Card resources", mode)

	for _, id := range report.Missing {
		fmt.Fprintf(out, "  %s %s\n", errStyle.Render("missing"), id)
	}
	for _, id := range report.Conflicting {
		fmt.Fprintf(out, "  %s %s\n", warnStyle.Render("conflict"), id)
	}

	if !report.OK() {
		return errors.New("dependencies need attention")
	}
	fmt.Fprintln(out, okStyle.Render("All dependencies present"))
	return nil
}

func runThemes(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	current := rt.ctrl.Configuration()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render("Theme options"))
	for _, name := range theme.Options() {
		marker := "  "
		if name == current.Theme {
			marker = okStyle.Render("* ")
		}
		fmt.Fprintln(out, marker+name)
	}

	bundled, err := theme.Bundled(rt.bundle)
	if err != nil {
		return fmt.Errorf("failed to list bundled themes: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Bundled theme files"))
	for _, th := range bundled {
		fmt.Fprintf(out, "  %-28s %s\n", th.Name, dimStyle.Render(humanize.Bytes(uint64(th.Size))))
	}

	dir := rt.host.Files.Path(current.ThemePath)
	installed, err := theme.Installed(dir)
	if err != nil {
		return fmt.Errorf("failed to list installed themes: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Installed in "+filepath.Clean(dir)))
	if len(installed) == 0 {
		fmt.Fprintln(out, dimStyle.Render("  none, run muictl setup"))
		return nil
	}
	for _, th := range installed {
		fmt.Fprintf(out, "  %-28s %s\n", th.Name,
			dimStyle.Render(strings.Join([]string{humanize.Bytes(uint64(th.Size)), humanize.Time(th.ModTime)}, ", ")))
	}
	return nil
}
