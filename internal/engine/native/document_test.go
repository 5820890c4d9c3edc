package native

import (
	"errors"
	"testing"

	"markdown-extractor/internal/domain"
)

func TestDocument_ExportModes(t *testing.T) {
	doc := &Document{blocks: []block{
		{kind: domain.ItemHeading, level: 9, text: "Deep"},
		{kind: domain.ItemTable, rows: [][]string{{"a", "b|c"}, {"1"}}},
		{kind: domain.ItemPicture, text: "chart", src: "chart.png"},
	}}

	tests := []struct {
		name string
		opts *domain.ExportOptions
		want string
	}{
		{
			name: "Defaults",
			want: "###### Deep\n\n| a | b\\|c |\n| --- | --- |\n| 1 |  |\n\n![chart](chart.png)",
		},
		{
			name: "Text tables and placeholders",
			opts: &domain.ExportOptions{ImageMode: domain.ImageModePlaceholder, TableMode: domain.TableModeText},
			want: "###### Deep\n\na b|c\n1\n\n<!-- image -->",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := doc.ExportMarkdown(tt.opts)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected markdown:\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestDocument_EmbeddedPictureWithoutData(t *testing.T) {
	doc := &Document{blocks: []block{{kind: domain.ItemPicture, page: 1}}, pages: 1, paged: true}

	_, err := doc.ExportMarkdown(&domain.ExportOptions{ImageMode: domain.ImageModeEmbedded})
	if !errors.Is(err, errNoImageData) {
		t.Fatalf("expected errNoImageData, got %v", err)
	}

	items, err := doc.Items()
	if err != nil || len(items) != 1 || items[0].HasText() || items[0].Page != 1 {
		t.Fatalf("unexpected items %+v, %v", items, err)
	}
	if pages, ok := doc.NumPages(); !ok || pages != 1 {
		t.Fatalf("unexpected pages %d, %v", pages, ok)
	}
}

func TestDocument_SeparateLists(t *testing.T) {
	doc := &Document{blocks: []block{
		{kind: domain.ItemListItem, text: "a", ordered: true},
		{kind: domain.ItemListItem, text: "b", ordered: true},
		{kind: domain.ItemParagraph, text: "between"},
		{kind: domain.ItemListItem, text: "c", ordered: true},
		{kind: domain.ItemCode, text: "x := 1"},
	}}

	got, err := doc.ExportMarkdown(nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "1. a\n2. b\n\nbetween\n\n1. c\n\n```\nx := 1\n```"
	if got != want {
		t.Fatalf("unexpected markdown %q", got)
	}
}
