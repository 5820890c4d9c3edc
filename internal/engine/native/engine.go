// Package native converts documents in-process: MuPDF for PDF and images,
// zip/XML walking for DOCX, an HTML tree walk for HTML and plain paragraphs
// for text.
package native

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"markdown-extractor/internal/domain"
)

// Options configures the native engine.
type Options struct {
	// ModelPath identifies the model reported by the service.
	ModelPath string
	// ModelPathExplicit makes Open fail when ModelPath does not exist.
	ModelPathExplicit bool
}

// Engine implements domain.Engine without external services.
type Engine struct {
	model  string
	logger domain.Logger
}

// Open validates options and returns a ready engine.
func Open(opts Options, logger domain.Logger) (*Engine, error) {
	if opts.ModelPathExplicit {
		if _, err := os.Stat(opts.ModelPath); err != nil {
			return nil, fmt.Errorf("model file %s: %w", opts.ModelPath, err)
		}
	}

	model := filepath.Base(opts.ModelPath)
	if opts.ModelPath == "" {
		model = "native"
	}
	logger.Info("Native engine ready", "model", model)
	return &Engine{model: model, logger: logger}, nil
}

// Convert reads the file at path and returns its document tree. The file
// extension selects the reader.
func (e *Engine) Convert(ctx context.Context, path string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *Document
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".tiff":
		doc, err = convertPaged(ctx, path, ext, e.logger)
	case ".docx":
		doc, err = convertDOCX(ctx, path)
	case ".html":
		doc, err = convertHTML(ctx, path)
	case ".txt":
		doc, err = convertText(path)
	case ".doc":
		err = fmt.Errorf("%w: legacy Word (.doc) needs the docling engine", domain.ErrUnsupportedByEngine)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedByEngine, ext)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Model returns the configured model identifier.
func (e *Engine) Model() string {
	return e.model
}

// Close releases nothing; each conversion owns its resources.
func (e *Engine) Close() error {
	return nil
}
