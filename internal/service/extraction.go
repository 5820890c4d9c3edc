package service

import (
	"fmt"
	"strings"

	"markdown-extractor/internal/domain"
)

// ExportStage names one strategy of the Markdown fallback chain.
type ExportStage string

const (
	StageDefaultExport ExportStage = "default_export"
	StageOptionsExport ExportStage = "options_export"
	StageItemText      ExportStage = "item_text"
)

// fallbackExportOptions asks for placeholders instead of image data and pipe
// tables.
var fallbackExportOptions = domain.ExportOptions{
	ImageMode: domain.ImageModePlaceholder,
	TableMode: domain.TableModeMarkdown,
}

// ExtractMarkdown runs the export strategies in order and returns the first
// that succeeds together with its stage. It fails with
// domain.ErrExtractionFailed only when the body cannot even be traversed.
func ExtractMarkdown(doc domain.Document, logger domain.Logger) (string, ExportStage, error) {
	md, err := guard(func() (string, error) { return doc.ExportMarkdown(nil) })
	if err == nil {
		return md, StageDefaultExport, nil
	}
	logger.Warn("Standard markdown export failed", "error", err)

	opts := fallbackExportOptions
	md, err = guard(func() (string, error) { return doc.ExportMarkdown(&opts) })
	if err == nil {
		return md, StageOptionsExport, nil
	}
	logger.Warn("Alternative markdown export failed", "error", err)

	md, err = guard(func() (string, error) { return joinItemText(doc) })
	if err == nil {
		return md, StageItemText, nil
	}
	logger.Warn("Basic text extraction failed", "error", err)

	return "", "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
}

func joinItemText(doc domain.Document) (string, error) {
	items, err := doc.Items()
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.HasText() {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// ExtractMetadata reads the page count and title. Anything missing, failing
// or panicking leaves the corresponding field absent.
func ExtractMetadata(doc domain.Document, logger domain.Logger) domain.Metadata {
	var meta domain.Metadata

	if err := recoverInto(func() {
		if pages, ok := doc.NumPages(); ok && pages >= 0 {
			p := pages
			meta.Pages = &p
		}
	}); err != nil {
		logger.Warn("Could not extract page count", "error", err)
	}

	if err := recoverInto(func() {
		// A reported title is kept verbatim, blank or not.
		if title, ok := doc.Title(); ok {
			meta.Title = &title
		}
	}); err != nil {
		logger.Warn("Could not extract title", "error", err)
	}

	return meta
}

// guard calls fn, turning a panic into an error.
func guard(fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func recoverInto(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}
