package docling

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"markdown-extractor/internal/domain"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	errNoMarkdown = errors.New("docling response has no markdown content")
	errNoBody     = errors.New("docling response has no document body")

	embeddedImage = regexp.MustCompile(`!\[[^\]]*\]\(data:[^)]*\)`)
)

// ref points at another node of the document, e.g. "#/texts/3".
type ref struct {
	Ref string `json:"$ref"`
}

type node struct {
	Children []ref `json:"children"`
}

type textNode struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Level    int    `json:"level"`
	Children []ref  `json:"children"`
	Prov     []struct {
		PageNo int `json:"page_no"`
	} `json:"prov"`
}

type tableNode struct {
	Children []ref `json:"children"`
	Data     struct {
		Grid [][]struct {
			Text string `json:"text"`
		} `json:"grid"`
	} `json:"data"`
}

// body is the part of a DoclingDocument we traverse. Root holds the reading
// order; the furniture tree (page headers and footers) is not read.
type body struct {
	Name     string                     `json:"name"`
	Root     *node                      `json:"body"`
	Groups   []node                     `json:"groups"`
	Texts    []textNode                 `json:"texts"`
	Tables   []tableNode                `json:"tables"`
	Pictures []node                     `json:"pictures"`
	Pages    map[string]json.RawMessage `json:"pages"`
}

// Document wraps one docling-serve result.
type Document struct {
	markdown *string
	body     *body
}

func newDocument(markdown *string, raw json.RawMessage) (*Document, error) {
	doc := &Document{markdown: markdown}
	b, err := parseBody(raw)
	if err != nil {
		return nil, err
	}
	doc.body = b
	if doc.markdown == nil && doc.body == nil {
		return nil, fmt.Errorf("docling response has neither markdown nor json content")
	}
	return doc, nil
}

// parseBody accepts json_content either as an object or as a JSON string
// holding one.
func parseBody(raw json.RawMessage) (*body, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("invalid json_content: %w", err)
		}
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}
	var b body
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("invalid json_content: %w", err)
	}
	return &b, nil
}

// ExportMarkdown returns the sidecar's Markdown. Placeholder mode swaps
// embedded data-URI images for the image marker; table modes are left to the
// sidecar.
func (d *Document) ExportMarkdown(opts *domain.ExportOptions) (string, error) {
	if d.markdown == nil {
		return "", errNoMarkdown
	}
	md := *d.markdown
	if opts != nil && opts.ImageMode == domain.ImageModePlaceholder {
		md = embeddedImage.ReplaceAllString(md, domain.ImagePlaceholder)
	}
	return md, nil
}

// NumPages returns the number of pages docling reported.
func (d *Document) NumPages() (int, bool) {
	if d.body == nil || len(d.body.Pages) == 0 {
		return 0, false
	}
	return len(d.body.Pages), true
}

// Title prefers a title item and falls back to the first level-1 heading of
// the Markdown.
func (d *Document) Title() (string, bool) {
	if d.body != nil {
		for _, t := range d.body.Texts {
			if t.Label == "title" && strings.TrimSpace(t.Text) != "" {
				return strings.TrimSpace(t.Text), true
			}
		}
	}
	if d.markdown == nil {
		return "", false
	}
	title := firstHeading([]byte(*d.markdown))
	return title, title != ""
}

// Items walks the body tree in reading order, descending into groups and
// into the children of each item. Documents without a body tree fall back to
// texts, then tables, then pictures, skipping page furniture.
func (d *Document) Items() ([]domain.ContentItem, error) {
	if d.body == nil {
		return nil, errNoBody
	}
	b := d.body

	if b.Root == nil || len(b.Root.Children) == 0 {
		items := make([]domain.ContentItem, 0, len(b.Texts)+len(b.Tables)+len(b.Pictures))
		for _, t := range b.Texts {
			if isFurniture(t.Label) {
				continue
			}
			items = append(items, textItem(t))
		}
		for _, t := range b.Tables {
			items = append(items, tableItem(t))
		}
		for range b.Pictures {
			items = append(items, domain.ContentItem{Kind: domain.ItemPicture})
		}
		return items, nil
	}

	var items []domain.ContentItem
	seen := make(map[string]bool)
	var walk func(children []ref)
	walk = func(children []ref) {
		for _, c := range children {
			if seen[c.Ref] {
				continue
			}
			seen[c.Ref] = true

			kind, idx, ok := parseRef(c.Ref)
			if !ok {
				continue
			}
			switch kind {
			case "texts":
				if idx < len(b.Texts) {
					items = append(items, textItem(b.Texts[idx]))
					walk(b.Texts[idx].Children)
				}
			case "tables":
				if idx < len(b.Tables) {
					items = append(items, tableItem(b.Tables[idx]))
					walk(b.Tables[idx].Children)
				}
			case "pictures":
				if idx < len(b.Pictures) {
					items = append(items, domain.ContentItem{Kind: domain.ItemPicture})
					walk(b.Pictures[idx].Children)
				}
			case "groups":
				if idx < len(b.Groups) {
					walk(b.Groups[idx].Children)
				}
			}
		}
	}
	walk(b.Root.Children)
	return items, nil
}

// parseRef splits "#/texts/3" into ("texts", 3).
func parseRef(r string) (string, int, bool) {
	rest, ok := strings.CutPrefix(r, "#/")
	if !ok {
		return "", 0, false
	}
	kind, num, ok := strings.Cut(rest, "/")
	if !ok {
		return "", 0, false
	}
	idx, err := strconv.Atoi(num)
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return kind, idx, true
}

func textItem(t textNode) domain.ContentItem {
	item := domain.ContentItem{Kind: kindFor(t.Label), Level: t.Level, Text: strings.TrimSpace(t.Text)}
	if len(t.Prov) > 0 {
		item.Page = t.Prov[0].PageNo
	}
	return item
}

func tableItem(t tableNode) domain.ContentItem {
	var rows []string
	for _, row := range t.Data.Grid {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if c := strings.TrimSpace(cell.Text); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " "))
		}
	}
	return domain.ContentItem{Kind: domain.ItemTable, Text: strings.Join(rows, "\n")}
}

func isFurniture(label string) bool {
	return label == "page_header" || label == "page_footer"
}

func kindFor(label string) domain.ItemKind {
	switch label {
	case "title":
		return domain.ItemTitle
	case "section_header":
		return domain.ItemHeading
	case "list_item":
		return domain.ItemListItem
	case "code":
		return domain.ItemCode
	default:
		return domain.ItemParagraph
	}
}

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// firstHeading returns the plain text of the first level-1 ATX or setext
// heading in src.
func firstHeading(src []byte) string {
	root := markdownParser.Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, src))
		if title == "" {
			return ast.WalkContinue, nil
		}
		return ast.WalkStop, nil
	})
	return title
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(inlineText(c, src))
		}
	}
	return sb.String()
}
