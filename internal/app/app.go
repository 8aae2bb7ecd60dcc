package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/squidquam/internal/ctxlog"
	"github.com/vk/squidquam/internal/hcl"
	"github.com/vk/squidquam/internal/roots"
)

// ErrNoDescriptions is returned when a build names no description files and
// the configuration lists none either.
var ErrNoDescriptions = errors.New("app: no device description given")

// DescriptionLoader reads device descriptions.
type DescriptionLoader interface {
	Load(ctx context.Context, paths ...string) (*hcl.Device, error)
}

// App encapsulates the application's dependencies and configuration.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader DescriptionLoader
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger writing to outW.
func NewApp(outW io.Writer, cfg *Config, loader DescriptionLoader) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.", "level", cfg.LogLevel, "format", cfg.LogFormat)
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Describe loads the device description from paths, or from the configured
// descriptions when paths is empty, and applies the lab settings to it.
func (a *App) Describe(ctx context.Context, paths ...string) (*hcl.Device, error) {
	ctx = a.Context(ctx)
	if len(paths) == 0 {
		paths = a.config.Descriptions
	}
	if len(paths) == 0 {
		return nil, ErrNoDescriptions
	}

	dev, err := a.loader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load device description: %w", err)
	}
	dev.Information.Lab = a.config.LabInfo()
	if dev.Information.StatePath == "" {
		dev.Information.StatePath = a.config.StatePath
	}
	a.logger.Debug("Device description loaded.", "device", dev.Information.DeviceName, "files", len(dev.Files))
	return dev, nil
}

// Build generates the starting configuration described by paths. When
// outPath is not empty, or the description has a state path, the result is
// saved there.
func (a *App) Build(ctx context.Context, paths []string, outPath string) (*roots.Root, error) {
	ctx = a.Context(ctx)
	dev, err := a.Describe(ctx, paths...)
	if err != nil {
		return nil, err
	}

	root, err := dev.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate configuration: %w", err)
	}
	a.logger.Info("Configuration generated.", "qubits", root.Qubits.Len(), "octaves", root.Octaves.Len())

	if outPath == "" && root.Information.StatePath == "" {
		a.logger.Warn("No state path set, configuration not saved.")
		return root, nil
	}
	if err := root.Save(ctx, outPath, roots.SaveOptions{}); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}
	saved := outPath
	if saved == "" {
		saved = root.Information.StatePath
	}
	a.logger.Info("Configuration saved.", "path", saved)
	return root, nil
}

// LoadRoot reads a saved configuration from path, or from the configured
// state path when path is empty, and applies the lab settings to it.
func (a *App) LoadRoot(ctx context.Context, path string) (*roots.Root, error) {
	ctx = a.Context(ctx)
	if path == "" {
		path = a.config.StatePath
	}
	if path == "" {
		return nil, roots.ErrNoStatePath
	}

	root, err := roots.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	root.Information.Lab = a.config.LabInfo()
	a.logger.Debug("Configuration loaded.", "path", path, "qubits", root.Qubits.Len())
	return root, nil
}
