package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codefionn/tapcalc/internal/actor"
	"github.com/codefionn/tapcalc/internal/calc"
	"github.com/codefionn/tapcalc/internal/config"
	"github.com/codefionn/tapcalc/internal/format"
	"github.com/codefionn/tapcalc/internal/history"
	"github.com/codefionn/tapcalc/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// app wires the configured history store, the actor that owns it and an
// engine recording into it.
type app struct {
	cfg        *config.Config
	configPath string
	formatter  *format.Formatter
	system     *actor.System
	history    *actor.HistoryClient
	engine     *calc.Engine
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, string, error) {
	path := configFile
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if locale != "" {
		cfg.Locale = locale
	}
	if angleMode != "" {
		cfg.AngleMode = angleMode
	}
	if calcMode != "" {
		cfg.Mode = calcMode
	}
	if historyBackend != "" {
		cfg.History.Backend = strings.ToLower(historyBackend)
		if historyPath == "" {
			cfg.History.Path = config.DefaultHistoryPath(cfg.History.Backend)
		}
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}
	if noHistory {
		cfg.History.Backend = history.BackendMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, path, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	logger.Info("tapcalc starting")
	logger.Debug("Configuration loaded: locale=%s angle=%s mode=%s history=%s:%s",
		cfg.Locale, cfg.AngleMode, cfg.Mode, cfg.History.Backend, cfg.History.Path)

	formatter, err := format.New(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale: %w", err)
	}

	store, err := history.Open(cfg.History.Backend, cfg.History.Path, history.WithLimit(cfg.History.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	system := actor.NewSystem()
	ref, err := system.Spawn(ctx, "history", actor.NewHistoryActor("history", store), 64)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to start history actor: %w", err)
	}
	client := actor.NewHistoryClient(ref)

	engine := calc.New(formatter, client,
		calc.WithAngleMode(cfg.Angle()),
		calc.WithMode(cfg.CalculatorMode()),
	)

	return &app{
		cfg:        cfg,
		configPath: path,
		formatter:  formatter,
		system:     system,
		history:    client,
		engine:     engine,
	}, nil
}

// Close flushes pending history writes and stops the actors.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.history.Flush(ctx); err != nil {
		logger.Warn("Failed to flush history: %v", err)
	}
	if err := a.system.StopAll(ctx); err != nil {
		logger.Warn("Failed to stop actors cleanly: %v", err)
	}
	if err := logger.Global().Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", err)
	}
}
