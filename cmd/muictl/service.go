package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/lifecycle"
	"github.com/jmylchreest/minimalistui/internal/model"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Call the integration's services",
}

var serviceReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Call minimalist_ui.reload",
	Long: `Copy the custom actions from <config_root>/minimalist_ui/custom_actions
into the card templates and fire minimalist_ui_reload. The service exists
once the integration has been set up.`,
	RunE: runServiceReload,
}

func init() {
	serviceCmd.AddCommand(serviceReloadCmd)
	rootCmd.AddCommand(serviceCmd)
}

func runServiceReload(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	err = rt.host.Services.CallService(cmd.Context(), model.Domain, lifecycle.ServiceReload, nil)
	if errors.Is(err, host.ErrServiceNotFound) {
		return fmt.Errorf("%w: run muictl setup first", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Custom actions reloaded")
	return nil
}
