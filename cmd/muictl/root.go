// Package main provides the CLI entrypoint for muictl.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/minimalistui/internal/assets"
	"github.com/jmylchreest/minimalistui/internal/config"
	"github.com/jmylchreest/minimalistui/internal/host"
	"github.com/jmylchreest/minimalistui/internal/lifecycle"
	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/worker"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		configRoot string
		envFile    string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "muictl",
	Short: "Install and manage the Minimalist UI dashboard",
	Long: `muictl installs the Minimalist UI dashboard, themes and card templates
into a home-automation host's configuration directory and manages the
integration's configuration entry and options.

Host state (config entries, the registered panel and resources, and the
integration status) is kept under <config_root>/.storage so that muid and
successive muictl invocations share it.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(globalOpts.envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", globalOpts.envFile, err)
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.configRoot != "" {
			cfg.ConfigRoot = globalOpts.configRoot
		}

		setupLogger(cfg.Log.Level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/minimalistui/muictl.toml)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.configRoot, "root", "r", "",
		"Host configuration directory (overrides config_root and "+config.EnvConfigRoot+")")
	rootCmd.PersistentFlags().StringVar(&globalOpts.envFile, "env-file", ".env",
		"Environment file loaded before the config")
}

// setupLogger configures the global slog logger.
func setupLogger(levelName string) {
	level, err := config.ParseLevel(levelName)
	if err != nil {
		level = slog.LevelWarn
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// runtime is the host and controller for a single invocation.
type runtime struct {
	storage *host.Storage
	host    host.Host
	bundle  fs.FS
	worker  *worker.Worker
	ctrl    *lifecycle.Controller
}

// newRuntime wires the file-backed host and restores the last persisted
// lifecycle snapshot.
func newRuntime() (*runtime, error) {
	bundle, err := assets.Open(cfg.BundleDir)
	if err != nil {
		return nil, err
	}

	storage := host.NewStorage(cfg.ConfigRoot)
	h := host.Host{
		Entries:   storage.Entries(),
		Panels:    storage.Panels(),
		Resources: storage.Resources(),
		Bus:       host.NewBus(logger.With("component", "bus")),
		Services:  host.NewServices(),
		Files:     host.NewLocalStore(cfg.ConfigRoot),
	}

	w := worker.New(logger.With("component", "worker"))
	ctrl := lifecycle.NewDefault(h, bundle, cfg.IntegrationDir, w, logger)

	var snap model.Snapshot
	found, err := storage.LoadStatus(&snap)
	if err != nil {
		logger.Warn("failed to load status, starting fresh", "error", err)
	} else if found {
		ctrl.Restore(snap)
	}

	ctrl.OnChange(func(s model.Snapshot) {
		if err := storage.SaveStatus(s); err != nil {
			logger.Warn("failed to save status", "error", err)
		}
	})

	return &runtime{storage: storage, host: h, bundle: bundle, worker: w, ctrl: ctrl}, nil
}

func (r *runtime) Close() {
	r.worker.Stop()
}

// result converts a hook result into a command error.
func (r *runtime) result(ok bool) error {
	if ok {
		return nil
	}
	if err := r.ctrl.Err(); err != nil {
		return err
	}
	return model.ErrLoadFailure
}
