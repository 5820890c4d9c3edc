package native

import (
	"context"
	"fmt"
	"strings"

	"markdown-extractor/internal/domain"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// convertPaged reads PDFs and images page by page through MuPDF. Pages
// without a text layer become pictures.
func convertPaged(ctx context.Context, path, ext string, logger domain.Logger) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ext, err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	out := &Document{pages: numPages, paged: true}
	if ext == ".pdf" {
		if count, err := api.PageCountFile(path); err == nil {
			out.pages = count
		} else {
			logger.Debug("pdfcpu page count unavailable, using MuPDF count", "error", err)
		}
		if title, ok := doc.Metadata()["title"]; ok {
			out.title = strings.TrimSpace(title)
		}
	}

	for pageNum := 0; pageNum < numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("Processing page", "page", pageNum+1, "total", numPages)

		text, err := doc.Text(pageNum)
		if err != nil {
			logger.Warn("Failed to extract text from page", "page", pageNum+1, "error", err)
			text = ""
		}
		text = strings.TrimSpace(sanitizeText(text))
		if text == "" {
			out.blocks = append(out.blocks, block{kind: domain.ItemPicture, page: pageNum + 1})
			continue
		}

		for _, para := range splitIntoParagraphs(text) {
			kind := domain.ItemParagraph
			level := 0
			if isHeading(para) {
				kind, level = domain.ItemHeading, 2
			}
			out.blocks = append(out.blocks, block{kind: kind, level: level, text: para, page: pageNum + 1})
		}
	}
	return out, nil
}

// splitIntoParagraphs splits on blank lines and folds single line breaks.
func splitIntoParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var result []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(strings.ReplaceAll(para, "\n", " "))
		if para != "" {
			result = append(result, para)
		}
	}
	return result
}

// isHeading guesses whether a short line of page text is a heading.
func isHeading(text string) bool {
	if text == "" || len(text) >= 100 {
		return false
	}
	if strings.ContainsAny(text[len(text)-1:], ".,;:") {
		return false
	}
	if text == strings.ToUpper(text) && text != strings.ToLower(text) && len(text) > 3 {
		return true
	}
	return len(strings.Fields(text)) <= 6
}

// sanitizeText drops NUL and other control characters, keeping tabs and
// line breaks.
func sanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7F:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, text)
}
