package native

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"markdown-extractor/internal/domain"
)

// maxDOCXPartSize bounds the decompressed size of a single package part.
var maxDOCXPartSize int64 = 64 << 20

var errPartTooLarge = errors.New("docx part exceeds size limit")

// convertDOCX walks word/document.xml of an Office Open XML package.
func convertDOCX(ctx context.Context, path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	defer zr.Close()

	body, err := readZipFile(&zr.Reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("invalid docx (document.xml): %w", err)
	}

	p := &docxParser{ctx: ctx, dec: xml.NewDecoder(bytes.NewReader(body))}
	blocks, err := p.parse()
	if err != nil {
		return nil, err
	}

	doc := &Document{blocks: blocks}
	if core, err := readZipFile(&zr.Reader, "docProps/core.xml"); err == nil {
		doc.title = parseCoreTitle(core)
	}
	return doc, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	lower := strings.ToLower(name)
	for _, f := range zr.File {
		if f.Name == name || strings.ToLower(f.Name) == lower {
			if f.UncompressedSize64 > uint64(maxDOCXPartSize) {
				return nil, fmt.Errorf("%w: %s declares %d bytes", errPartTooLarge, f.Name, f.UncompressedSize64)
			}
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			// The declared size is not trusted.
			data, err := io.ReadAll(io.LimitReader(rc, maxDOCXPartSize+1))
			if err != nil {
				return nil, err
			}
			if int64(len(data)) > maxDOCXPartSize {
				return nil, fmt.Errorf("%w: %s", errPartTooLarge, f.Name)
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// parseCoreTitle returns dc:title from docProps/core.xml.
func parseCoreTitle(core []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(core))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "title" {
			return strings.TrimSpace(readElementText(dec))
		}
	}
}

func readElementText(dec *xml.Decoder) string {
	var out strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			out.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return out.String()
			}
			depth--
		}
	}
	return out.String()
}

type docxParser struct {
	ctx context.Context
	dec *xml.Decoder
}

// docxParagraph is what one w:p contributes.
type docxParagraph struct {
	style   string
	list    bool
	text    string
	drawing bool
}

func (p *docxParser) parse() ([]block, error) {
	var blocks []block
	for {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := p.dec.Token()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid docx xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			para, err := p.paragraph()
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, para.blocks()...)
		case "tbl":
			rows, err := p.table()
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				blocks = append(blocks, block{kind: domain.ItemTable, rows: rows})
			}
		}
	}
}

// paragraph consumes tokens up to the matching </w:p>. Paragraphs nested in
// text boxes are folded into the outer one.
func (p *docxParser) paragraph() (docxParagraph, error) {
	var para docxParagraph
	var text strings.Builder
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return para, fmt.Errorf("invalid docx paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "pStyle":
				if para.style == "" {
					para.style = attr(t, "val")
				}
			case "numPr":
				para.list = true
			case "tab":
				text.WriteString("\t")
			case "br", "cr":
				text.WriteString(" ")
			case "drawing", "pict":
				para.drawing = true
			case "t":
				text.WriteString(readElementText(p.dec))
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				if depth == 0 {
					para.text = strings.TrimSpace(text.String())
					return para, nil
				}
				depth--
			}
		}
	}
}

func (para docxParagraph) blocks() []block {
	var out []block
	if para.text != "" {
		style := strings.ToLower(para.style)
		switch {
		case style == "title":
			out = append(out, block{kind: domain.ItemTitle, level: 1, text: para.text})
		case strings.HasPrefix(style, "heading"):
			level, err := strconv.Atoi(strings.TrimPrefix(style, "heading"))
			if err != nil {
				level = 1
			}
			// Title takes level 1, so Heading1 renders as ##.
			out = append(out, block{kind: domain.ItemHeading, level: level + 1, text: para.text})
		case para.list || strings.HasPrefix(style, "listparagraph"):
			out = append(out, block{kind: domain.ItemListItem, text: para.text})
		default:
			out = append(out, block{kind: domain.ItemParagraph, text: para.text})
		}
	}
	if para.drawing {
		out = append(out, block{kind: domain.ItemPicture})
	}
	return out
}

// table consumes tokens up to the matching </w:tbl>. Cells of nested tables
// are merged into the enclosing cell.
func (p *docxParser) table() ([][]string, error) {
	var rows [][]string
	var cell strings.Builder
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid docx table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
			case "tr":
				if depth == 0 {
					rows = append(rows, []string{})
				}
			case "tc":
				if depth == 0 {
					cell.Reset()
				}
			case "p":
				para, err := p.paragraph()
				if err != nil {
					return nil, err
				}
				if para.text != "" {
					if cell.Len() > 0 {
						cell.WriteString(" ")
					}
					cell.WriteString(para.text)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if depth == 0 {
					return rows, nil
				}
				depth--
			case "tc":
				if depth == 0 && len(rows) > 0 {
					rows[len(rows)-1] = append(rows[len(rows)-1], cell.String())
				}
			}
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
