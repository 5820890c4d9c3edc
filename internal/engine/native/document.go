package native

import (
	"errors"
	"fmt"
	"strings"

	"markdown-extractor/internal/domain"
)

var errNoImageData = errors.New("picture has no embeddable image data")

// block is one body element with everything needed to render it.
type block struct {
	kind    domain.ItemKind
	level   int
	text    string
	page    int
	ordered bool
	rows    [][]string
	// src is the image reference for pictures; empty when the picture
	// exists only as a region of a page.
	src string
}

// Document is a converted file held in memory.
type Document struct {
	blocks []block
	pages  int
	paged  bool
	title  string
}

// ExportMarkdown renders the blocks. With nil options pictures are embedded
// and tables are pipe tables; embedding fails for pictures without data.
func (d *Document) ExportMarkdown(opts *domain.ExportOptions) (string, error) {
	imageMode := domain.ImageModeEmbedded
	tableMode := domain.TableModeMarkdown
	if opts != nil {
		if opts.ImageMode != domain.ImageModeDefault {
			imageMode = opts.ImageMode
		}
		if opts.TableMode != domain.TableModeDefault {
			tableMode = opts.TableMode
		}
	}

	var sb strings.Builder
	var prev *block
	listIndex := 0
	for i := range d.blocks {
		b := &d.blocks[i]
		sameList := prev != nil && prev.kind == domain.ItemListItem &&
			b.kind == domain.ItemListItem && prev.ordered == b.ordered
		if !sameList {
			listIndex = 0
		}
		out, err := renderBlock(b, imageMode, tableMode, &listIndex)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", b.kind, err)
		}
		if out == "" {
			continue
		}
		if sb.Len() > 0 {
			if sameList {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(out)
		prev = b
	}
	return sb.String(), nil
}

func renderBlock(b *block, imageMode domain.ImageMode, tableMode domain.TableMode, listIndex *int) (string, error) {
	switch b.kind {
	case domain.ItemTitle:
		return "# " + b.text, nil
	case domain.ItemHeading:
		level := b.level
		if level < 1 {
			level = 2
		}
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + b.text, nil
	case domain.ItemListItem:
		if b.ordered {
			*listIndex++
			return fmt.Sprintf("%d. %s", *listIndex, b.text), nil
		}
		return "- " + b.text, nil
	case domain.ItemCode:
		return "```\n" + b.text + "\n```", nil
	case domain.ItemTable:
		if tableMode == domain.TableModeText {
			return tableText(b.rows), nil
		}
		return pipeTable(b.rows), nil
	case domain.ItemPicture:
		switch imageMode {
		case domain.ImageModePlaceholder:
			return domain.ImagePlaceholder, nil
		default:
			if b.src == "" {
				return "", errNoImageData
			}
			return fmt.Sprintf("![%s](%s)", b.text, b.src), nil
		}
	default:
		return b.text, nil
	}
}

func pipeTable(rows [][]string) string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	line := func(cells []string) string {
		padded := make([]string, width)
		for i := range padded {
			if i < len(cells) {
				padded[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", `\|`)
			}
		}
		return "| " + strings.Join(padded, " | ") + " |"
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, line(rows[0]))
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, row := range rows[1:] {
		lines = append(lines, line(row))
	}
	return strings.Join(lines, "\n")
}

func tableText(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// NumPages reports the page count for paged formats only.
func (d *Document) NumPages() (int, bool) {
	return d.pages, d.paged
}

// Title returns the document title when one was found.
func (d *Document) Title() (string, bool) {
	return d.title, d.title != ""
}

// Items returns the body in reading order. Tables flatten to their cell text.
func (d *Document) Items() ([]domain.ContentItem, error) {
	items := make([]domain.ContentItem, 0, len(d.blocks))
	for _, b := range d.blocks {
		text := b.text
		if b.kind == domain.ItemTable {
			text = tableText(b.rows)
		}
		if b.kind == domain.ItemPicture {
			text = ""
		}
		items = append(items, domain.ContentItem{Kind: b.kind, Level: b.level, Text: text, Page: b.page})
	}
	return items, nil
}
