package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"markdown-extractor/internal/domain"
	apperrors "markdown-extractor/pkg/errors"

	"golang.org/x/sync/semaphore"
)

// Preprocessing bounds for images.
const (
	MaxImageWidth  = 800
	MaxImageHeight = 600
	ImageQuality   = 85
)

// OrchestratorOptions tunes a conversion pipeline.
type OrchestratorOptions struct {
	// ScratchDir receives transient files; empty means os.TempDir().
	ScratchDir      string
	ImageTimeout    time.Duration
	DocumentTimeout time.Duration
	// Preprocess enables image downscaling and processing_info reporting.
	Preprocess     bool
	MaxImageWidth  int
	MaxImageHeight int
	ImageQuality   int
	// MaxConcurrent bounds engine invocations in flight, abandoned ones included.
	MaxConcurrent int
}

// DefaultOrchestratorOptions returns the constrained-hardware defaults.
func DefaultOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{
		ImageTimeout:    90 * time.Second,
		DocumentTimeout: 120 * time.Second,
		Preprocess:      true,
		MaxImageWidth:   MaxImageWidth,
		MaxImageHeight:  MaxImageHeight,
		ImageQuality:    ImageQuality,
		MaxConcurrent:   4,
	}
}

// Orchestrator turns a validated upload into Markdown using the engine.
type Orchestrator struct {
	engine     domain.Engine
	engineErr  error
	compressor domain.ImageCompressor
	validator  *Validator
	logger     domain.Logger
	opts       OrchestratorOptions
	slots      *semaphore.Weighted
}

// NewOrchestrator creates a conversion orchestrator. engineErr is the error
// the engine failed to open with, if any; conversions then fail fast.
func NewOrchestrator(
	engine domain.Engine,
	engineErr error,
	compressor domain.ImageCompressor,
	validator *Validator,
	logger domain.Logger,
	opts OrchestratorOptions,
) *Orchestrator {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	if engine == nil && engineErr == nil {
		engineErr = domain.ErrEngineUnavailable
	}
	return &Orchestrator{
		engine:     engine,
		engineErr:  engineErr,
		compressor: compressor,
		validator:  validator,
		logger:     logger,
		opts:       opts,
		slots:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}
}

// Validate returns the normalized extension of filename or a validation error.
func (o *Orchestrator) Validate(filename string) (string, error) {
	return o.validator.Validate(filename)
}

// Ready returns nil when the engine initialized successfully.
func (o *Orchestrator) Ready() error {
	if o.engineErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, o.engineErr)
	}
	return nil
}

// Model returns the active engine's model identifier.
func (o *Orchestrator) Model() string {
	if o.engine == nil {
		return ""
	}
	return o.engine.Model()
}

// BudgetFor returns the engine deadline for a normalized extension.
func (o *Orchestrator) BudgetFor(ext string) time.Duration {
	if domain.IsImageExtension(ext) {
		return o.opts.ImageTimeout
	}
	return o.opts.DocumentTimeout
}

// Convert runs the full pipeline for one upload. The transient file it
// stages is removed before Convert returns, whatever the outcome.
func (o *Orchestrator) Convert(ctx context.Context, artifact domain.UploadedArtifact) (*domain.ResponsePayload, error) {
	ext, err := o.validator.Validate(artifact.Filename)
	if err != nil {
		return nil, err
	}
	if err := o.Ready(); err != nil {
		return nil, apperrors.NewUnavailableError("Docling converter not initialized", err).
			WithSuggestion("Check the engine configuration and the /health endpoint")
	}

	log := o.logger.With("filename", artifact.Filename, "file_type", ext)
	log.Info("Processing file", "size", artifact.Size())

	budget := o.BudgetFor(ext)
	data := artifact.Data
	var info *domain.ProcessingInfo
	if o.opts.Preprocess {
		data = o.preprocess(ext, data, log)
		info = &domain.ProcessingInfo{
			Compressed:     len(data) != len(artifact.Data),
			OriginalSize:   artifact.Size(),
			ProcessedSize:  int64(len(data)),
			TimeoutSeconds: int(math.Ceil(budget.Seconds())),
		}
	}

	path, cleanup, err := o.stage(ext, data, log)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to stage upload", err)
	}
	defer cleanup()

	doc, err := o.runEngine(ctx, path, ext, budget, log)
	if err != nil {
		return nil, err
	}

	markdown, stage, err := ExtractMarkdown(doc, log)
	if err != nil {
		log.Error("Markdown extraction failed", err)
		return nil, apperrors.NewConversionError("Conversion failed: "+err.Error(), err).
			WithSuggestion("The document was read but no text could be exported; try another format")
	}

	metadata := ExtractMetadata(doc, log)
	payload := domain.NewResponsePayload(SanitizeFilename(artifact.Filename), ext, markdown, metadata, info)
	log.Info("Conversion successful", "markdown_length", payload.MarkdownLength, "export_stage", stage)
	return payload, nil
}

func (o *Orchestrator) preprocess(ext string, data []byte, log domain.Logger) []byte {
	if !domain.IsImageExtension(ext) || o.compressor == nil {
		return data
	}

	var out []byte
	var err error
	if perr := recoverInto(func() {
		out, err = o.compressor.ResizeAndRecompress(data, o.opts.MaxImageWidth, o.opts.MaxImageHeight, o.opts.ImageQuality)
	}); perr != nil {
		err = perr
	}
	if err == nil && len(out) == 0 {
		err = errors.New("compressor returned no data")
	}
	if err != nil {
		log.Warn("Image compression failed, using original bytes", "error", err)
		return data
	}

	log.Info("Image compressed", "original_size", len(data), "processed_size", len(out))
	return out
}

// stage writes data to a uniquely named file carrying ext and returns a
// cleanup func that removes it. Cleanup failures are logged, never returned.
func (o *Orchestrator) stage(ext string, data []byte, log domain.Logger) (string, func(), error) {
	f, err := os.CreateTemp(o.opts.ScratchDir, "upload-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create transient file: %w", err)
	}
	path := f.Name()

	cleanup := func() {
		if err := os.Remove(path); err != nil {
			log.Warn("Could not remove temporary file", "path", path, "error", err)
			return
		}
		log.Debug("Cleaned up temporary file", "path", path)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write transient file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close transient file: %w", err)
	}

	log.Debug("Saved to temporary file", "path", path)
	return path, cleanup, nil
}

type engineResult struct {
	doc domain.Document
	err error
}

// runEngine calls the engine under its own deadline. The call runs in a
// supervised goroutine; when the deadline fires first its result is dropped
// into a buffered channel nobody reads and the goroutine exits on its own.
func (o *Orchestrator) runEngine(ctx context.Context, path, ext string, budget time.Duration, log domain.Logger) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	if err := o.slots.Acquire(ctx, 1); err != nil {
		return nil, o.abandoned(ctx, ext, budget, log)
	}

	done := make(chan engineResult, 1)
	go func() {
		defer o.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- engineResult{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		doc, err := o.engine.Convert(ctx, path)
		done <- engineResult{doc: doc, err: err}
	}()

	log.Info("Starting conversion", "budget", budget)
	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, o.abandoned(ctx, ext, budget, log)
			}
			log.Error("Conversion failed", res.err)
			return nil, apperrors.NewConversionError("Conversion failed: "+res.err.Error(), res.err)
		}
		if res.doc == nil {
			return nil, apperrors.NewConversionError("Conversion failed: engine returned no document", nil)
		}
		log.Debug("Engine finished", "elapsed", time.Since(start))
		return res.doc, nil
	case <-ctx.Done():
		return nil, o.abandoned(ctx, ext, budget, log)
	}
}

func (o *Orchestrator) abandoned(ctx context.Context, ext string, budget time.Duration, log domain.Logger) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("Conversion canceled by caller", "error", ctx.Err())
		return apperrors.NewConversionError("Conversion canceled", ctx.Err())
	}

	log.Warn("Conversion exceeded budget; abandoned work may still run briefly", "budget", budget)
	timeoutErr := &domain.TimeoutError{Extension: ext, Budget: budget}
	suggestion := "Try a smaller document or split it into fewer pages"
	if domain.IsImageExtension(ext) {
		suggestion = "Try a smaller image or a lower resolution"
	}
	return apperrors.NewTimeoutError(
		fmt.Sprintf("Processing timeout: conversion took longer than %s", budget),
		timeoutErr,
	).WithSuggestion(suggestion)
}
