package native

import (
	"bytes"
	"fmt"
	"os"

	"markdown-extractor/internal/domain"
)

// convertText treats blank-line separated runs as paragraphs.
func convertText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := sanitizeText(string(bytes.ToValidUTF8(data, []byte{})))

	doc := &Document{}
	for _, para := range splitIntoParagraphs(text) {
		doc.blocks = append(doc.blocks, block{kind: domain.ItemParagraph, text: para})
	}
	return doc, nil
}
