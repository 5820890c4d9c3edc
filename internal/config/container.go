package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"markdown-extractor/internal/domain"
	"markdown-extractor/internal/engine/docling"
	"markdown-extractor/internal/engine/native"
	"markdown-extractor/internal/imaging"
	"markdown-extractor/internal/service"
	"markdown-extractor/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config       domain.Config
	Logger       domain.Logger
	Engine       domain.Engine
	EngineErr    error
	Validator    *service.Validator
	Orchestrator *service.Orchestrator
}

// NewContainer wires the application. An engine that fails to open does not
// stop the process: the error is kept and surfaced through /health and
// conversion attempts.
func NewContainer(ctx context.Context, cfg domain.Config) *Container {
	appLogger := logger.NewLogger(cfg.GetLogLevel())
	return newContainer(ctx, cfg, appLogger)
}

func newContainer(ctx context.Context, cfg domain.Config, appLogger domain.Logger) *Container {
	if err := os.MkdirAll(cfg.GetScratchDir(), 0o700); err != nil {
		appLogger.Warn("Could not create scratch directory", "path", cfg.GetScratchDir(), "error", err)
	}

	engine, engineErr := openEngine(ctx, cfg, appLogger)
	if engineErr != nil {
		appLogger.Error("Conversion engine failed to initialize", engineErr, "engine", cfg.GetEngine())
	}

	validator := service.NewValidator()
	opts := service.DefaultOrchestratorOptions()
	opts.ScratchDir = cfg.GetScratchDir()
	opts.ImageTimeout = cfg.GetImageTimeout()
	opts.DocumentTimeout = cfg.GetDocumentTimeout()
	opts.Preprocess = cfg.GetProcessingProfile() == ProfileConstrained
	opts.MaxConcurrent = cfg.GetMaxConcurrentConversions()

	orchestrator := service.NewOrchestrator(engine, engineErr, imaging.NewCompressor().WithMaxPixels(cfg.GetMaxImagePixels()), validator, appLogger, opts)

	return &Container{
		Config:       cfg,
		Logger:       appLogger,
		Engine:       engine,
		EngineErr:    engineErr,
		Validator:    validator,
		Orchestrator: orchestrator,
	}
}

func openEngine(ctx context.Context, cfg domain.Config, appLogger domain.Logger) (domain.Engine, error) {
	switch cfg.GetEngine() {
	case EngineNative:
		engine, err := native.Open(native.Options{
			ModelPath:         cfg.GetModelPath(),
			ModelPathExplicit: cfg.IsModelPathExplicit(),
		}, appLogger)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case EngineDocling:
		model := ""
		if cfg.IsModelPathExplicit() {
			model = filepath.Base(cfg.GetModelPath())
		}
		client, err := docling.Open(ctx, docling.Options{BaseURL: cfg.GetDoclingURL(), Model: model}, appLogger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.GetEngine())
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// Close releases the engine.
func (c *Container) Close() error {
	if c.Engine == nil {
		return nil
	}
	return c.Engine.Close()
}
