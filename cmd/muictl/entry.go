package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/options"
)

var entryOpts struct {
	set []string
}

var optionsOpts struct {
	set []string
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage the integration's config entry",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create the config entry and set it up",
	Long: `Run the config flow's user step: create the integration's single config
entry and set it up. Fails with single_instance_allowed when an entry
already exists or the integration runs from configuration.yaml.

Initial data can be given with --set key=value.`,
	RunE: runEntryAdd,
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List config entries",
	RunE:  runEntryList,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Edit the integration options",
	Long: `Edit sidepanel_enabled, sidepanel_title, sidepanel_icon, theme and
theme_path on the config entry and re-run setup.

Without --set an interactive form is shown. While the integration is
configured in configuration.yaml there is nothing to edit.`,
	RunE: runOptions,
}

func init() {
	entryAddCmd.Flags().StringArrayVar(&entryOpts.set, "set", nil, "Initial option as key=value (repeatable)")
	optionsCmd.Flags().StringArrayVar(&optionsOpts.set, "set", nil, "Option as key=value (repeatable, skips the form)")

	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryListCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(optionsCmd)
}

func runEntryAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := parseAssignments(nil, entryOpts.set)
	if err != nil {
		return err
	}

	current := rt.ctrl.Configuration()
	running := current.Provenance == model.ProvenanceFile && rt.ctrl.State() != model.StateUninitialized

	entry, err := options.NewConfigFlow(rt.host.Entries).User(ctx, running, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config entry %s\n", entry.EntryID)

	if err := rt.result(rt.ctrl.SetupWithEntry(ctx, entry)); err != nil {
		return err
	}
	return printState(cmd, rt)
}

func runEntryList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.host.Entries.Entries(cmd.Context(), model.Domain)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No config entries")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-6s  %-11s  updated %s\n",
			e.EntryID, e.Source, e.State, humanize.Time(e.UpdatedAt))
		if e.Reason != "" {
			fmt.Fprintf(out, "  %s\n", dimStyle.Render(e.Reason))
		}
	}
	return nil
}

func runOptions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	current := rt.ctrl.Configuration()
	fields, err := options.Schema(current)
	if err != nil {
		return fmt.Errorf("options unavailable: %w", err)
	}

	var input map[string]any
	if len(optionsOpts.set) > 0 {
		input, err = parseAssignments(fields, optionsOpts.set)
		if err != nil {
			return err
		}
	} else {
		form := options.NewForm(fields)
		form.WithProgramOptions(tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
		if err := form.Run(); err != nil {
			return err
		}
		input = form.Values()
	}

	values, err := options.Submit(current, input)
	if err != nil {
		return err
	}
	if current.Provenance == model.ProvenanceFile {
		fmt.Fprintln(cmd.OutOrStdout(), "Minimalist UI is configured in configuration.yaml, nothing to change")
		return nil
	}

	entry, err := rt.host.Entries.UpdateOptions(ctx, current.EntryID, values)
	if err != nil {
		return fmt.Errorf("failed to store options: %w", err)
	}
	if err := rt.result(rt.ctrl.OptionsUpdated(ctx, entry)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved options for %s\n", options.EntryTitle)
	return printState(cmd, rt)
}

// parseAssignments parses key=value pairs. Values of bool fields, and any
// true/false value when fields is nil, become bools.
func parseAssignments(fields []options.Field, pairs []string) (map[string]any, error) {
	kinds := make(map[string]options.Kind, len(fields))
	for _, f := range fields {
		kinds[f.Key] = f.Kind
	}

	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", pair)
		}

		kind, known := kinds[key]
		switch {
		case known && kind == options.KindBool, !known && fields == nil && isBool(value):
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = b
		default:
			out[key] = value
		}
	}
	return out, nil
}

func isBool(s string) bool {
	return s == "true" || s == "false"
}
