package service

import (
	"errors"
	"strings"
	"testing"

	"markdown-extractor/internal/domain"
)

func TestExtractMarkdown_DefaultExportWins(t *testing.T) {
	doc := &stubDocument{markdown: "# Title\n\nBody"}
	logger := NewMockLogger()

	md, stage, err := ExtractMarkdown(doc, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != "# Title\n\nBody" || stage != StageDefaultExport {
		t.Fatalf("unexpected result %q from %s", md, stage)
	}
	if strings.Join(doc.trace, ",") != "default" {
		t.Fatalf("expected only the default export, got %v", doc.trace)
	}
	if logger.Count("WARN") != 0 {
		t.Fatalf("expected no warnings, got %v", logger.Messages())
	}
}

func TestExtractMarkdown_FallsBackToOptionsExport(t *testing.T) {
	doc := &stubDocument{defaultErr: errExport, optionsOutput: "| a | b |"}
	logger := NewMockLogger()

	md, stage, err := ExtractMarkdown(doc, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != "| a | b |" || stage != StageOptionsExport {
		t.Fatalf("unexpected result %q from %s", md, stage)
	}
	if strings.Join(doc.trace, ",") != "default,options" {
		t.Fatalf("expected default then options, got %v", doc.trace)
	}
	if doc.opts == nil || doc.opts.ImageMode != domain.ImageModePlaceholder || doc.opts.TableMode != domain.TableModeMarkdown {
		t.Fatalf("expected placeholder images and markdown tables, got %+v", doc.opts)
	}
	if logger.Count("WARN") != 1 {
		t.Fatalf("expected one warning, got %v", logger.Messages())
	}
}

func TestExtractMarkdown_FallsBackToItemText(t *testing.T) {
	doc := &stubDocument{
		defaultPanic: true,
		optionsErr:   errExport,
		items: []domain.ContentItem{
			{Kind: domain.ItemHeading, Text: "Intro"},
			{Kind: domain.ItemPicture},
			{Kind: domain.ItemParagraph, Text: "First paragraph."},
			{Kind: domain.ItemParagraph, Text: ""},
			{Kind: domain.ItemParagraph, Text: "Second paragraph."},
		},
	}
	logger := NewMockLogger()

	md, stage, err := ExtractMarkdown(doc, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != StageItemText {
		t.Fatalf("expected item text stage, got %s", stage)
	}
	if md != "Intro\n\nFirst paragraph.\n\nSecond paragraph." {
		t.Fatalf("unexpected markdown %q", md)
	}
	if strings.Join(doc.trace, ",") != "default,options,items" {
		t.Fatalf("expected all three stages in order, got %v", doc.trace)
	}
	if logger.Count("WARN") != 2 {
		t.Fatalf("expected two warnings, got %v", logger.Messages())
	}
	if logger.Count("ERROR") != 0 {
		t.Fatalf("failed stages must not log errors, got %v", logger.Messages())
	}
}

func TestExtractMarkdown_EmptyBodyIsEmptyMarkdown(t *testing.T) {
	doc := &stubDocument{defaultErr: errExport, optionsErr: errExport}

	md, stage, err := ExtractMarkdown(doc, NewMockLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if md != "" || stage != StageItemText {
		t.Fatalf("expected empty markdown from item stage, got %q from %s", md, stage)
	}
}

func TestExtractMarkdown_AllStagesFail(t *testing.T) {
	doc := &stubDocument{defaultErr: errExport, optionsErr: errExport, itemsErr: errors.New("no body")}

	_, _, err := ExtractMarkdown(doc, NewMockLogger())
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name      string
		doc       *stubDocument
		wantPages *int
		wantTitle *string
	}{
		{
			name:      "Pages and title",
			doc:       &stubDocument{pages: intPtr(3), title: strPtr("Annual report")},
			wantPages: intPtr(3),
			wantTitle: strPtr("Annual report"),
		},
		{
			name: "Nothing exposed",
			doc:  &stubDocument{},
		},
		{
			name:      "Blank title is kept",
			doc:       &stubDocument{pages: intPtr(1), title: strPtr("   ")},
			wantPages: intPtr(1),
			wantTitle: strPtr("   "),
		},
		{
			name:      "Title is not trimmed",
			doc:       &stubDocument{title: strPtr(" Q3 Report\n")},
			wantTitle: strPtr(" Q3 Report\n"),
		},
		{
			name:      "Page count panics",
			doc:       &stubDocument{metaPanic: true, title: strPtr("Still here")},
			wantTitle: strPtr("Still here"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ExtractMetadata(tt.doc, NewMockLogger())
			if (meta.Pages == nil) != (tt.wantPages == nil) || (meta.Pages != nil && *meta.Pages != *tt.wantPages) {
				t.Fatalf("unexpected pages: %v", meta.Pages)
			}
			if (meta.Title == nil) != (tt.wantTitle == nil) || (meta.Title != nil && *meta.Title != *tt.wantTitle) {
				t.Fatalf("unexpected title: %v", meta.Title)
			}
		})
	}
}

func TestExtractMetadata_MissingIsEmpty(t *testing.T) {
	if meta := ExtractMetadata(&stubDocument{}, NewMockLogger()); !meta.IsEmpty() {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
}
