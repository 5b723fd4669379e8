package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/footytips/internal/api"
	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/logging"
	"github.com/Vodeneev/footytips/internal/predictor/app"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

const (
	serviceName       = "predictor"
	defaultConfigPath = "configs/local.yaml"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Predictor service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, runFor := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, closeLog, err := logging.SetupLogger(cfg.Logging, serviceName)
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer closeLog()
	}
	slog.Info("Config loaded", "path", configPath, "storage", cfg.Storage.Driver, "sources", cfg.Sources.Enabled)

	ctx, cancel := createContext(runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close dependencies", "error", err)
		}
	}()

	if cfg.Scheduler.Enabled {
		sched, err := predictor.NewScheduler(cfg.Scheduler, a.Service)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		slog.Info("Scheduler disabled, runs are triggered through the API only")
	}

	srv := api.NewServer(cfg.API, a.Store, a.Service, a.Metrics, serviceName)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	slog.Info("Predictor service stopped gracefully")
	return nil
}

func parseFlags() (string, time.Duration) {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	var (
		configPath string
		runFor     time.Duration
	)
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file")
	flag.DurationVar(&runFor, "run-for", 0, "Auto-stop after duration. 0 = run until SIGINT/SIGTERM")
	flag.Parse()
	return configPath, runFor
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}
