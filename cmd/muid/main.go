// Package main provides the muid daemon: it keeps the Minimalist UI
// integration set up while the host configuration, the config entries and
// the user's custom actions change.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jmylchreest/minimalistui/internal/assets"
	"github.com/jmylchreest/minimalistui/internal/config"
	"github.com/jmylchreest/minimalistui/internal/daemon"
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

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/minimalistui/muictl.toml)")
	configRoot := flag.String("root", "", "Host configuration directory (overrides config_root)")
	envFile := flag.String("env-file", ".env", "Environment file loaded before the config")
	verbose := flag.Bool("v", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("muid version", version, "commit", commit, "built", buildTime)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *configRoot != "" {
		cfg.ConfigRoot = *configRoot
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("muid failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting muid", "version", version, "config_root", cfg.ConfigRoot)

	bundle, err := assets.Open(cfg.BundleDir)
	if err != nil {
		return err
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
	defer w.Stop()

	ctrl := lifecycle.NewDefault(h, bundle, cfg.IntegrationDir, w, logger)
	ctrl.OnChange(func(s model.Snapshot) {
		if err := storage.SaveStatus(s); err != nil {
			logger.Warn("failed to save status", "error", err)
		}
	})

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	d := daemon.New(cfg, ctrl, h, storage.Entries(), logger.With("component", "daemon"))
	return d.Run(ctx)
}
