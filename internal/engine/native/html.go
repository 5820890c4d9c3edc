package native

import (
	"context"
	"fmt"
	"os"
	"strings"

	"markdown-extractor/internal/domain"

	"golang.org/x/net/html"
)

var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "nav": true, "noscript": true, "template": true,
}

// convertHTML walks the parsed tree collecting block elements in order.
func convertHTML(ctx context.Context, path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open html: %w", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	w := &htmlWalker{ctx: ctx}
	w.walk(root, false)
	if w.err != nil {
		return nil, w.err
	}
	return &Document{blocks: w.blocks, title: w.title}, nil
}

type htmlWalker struct {
	ctx    context.Context
	blocks []block
	title  string
	err    error
}

func (w *htmlWalker) walk(n *html.Node, ordered bool) {
	if w.err != nil {
		return
	}
	if err := w.ctx.Err(); err != nil {
		w.err = err
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := collapseSpace(n.Data); text != "" {
			w.blocks = append(w.blocks, block{kind: domain.ItemParagraph, text: text})
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if tag == "title" && w.title == "" {
			w.title = collapseSpace(textContent(n))
			return
		}
		if tag == "head" {
			// <title> lives here.
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && strings.EqualFold(c.Data, "title") {
					w.walk(c, ordered)
				}
			}
			return
		}
		if skipTags[tag] {
			return
		}
		if w.element(n, tag, ordered) {
			return
		}
		if tag == "ol" {
			ordered = true
		} else if tag == "ul" {
			ordered = false
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, ordered)
	}
}

// element appends a block for n and reports whether its subtree was consumed.
func (w *htmlWalker) element(n *html.Node, tag string, ordered bool) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := collapseSpace(textContent(n)); text != "" {
			w.blocks = append(w.blocks, block{kind: domain.ItemHeading, level: int(tag[1] - '0'), text: text})
		}
		return true
	case "p", "blockquote", "dt", "dd", "figcaption":
		w.inline(n, domain.ItemParagraph, false)
		return true
	case "li":
		w.inline(n, domain.ItemListItem, ordered)
		return true
	case "pre":
		if text := strings.Trim(textContent(n), "\n"); strings.TrimSpace(text) != "" {
			w.blocks = append(w.blocks, block{kind: domain.ItemCode, text: text})
		}
		return true
	case "table":
		if rows := tableRows(n); len(rows) > 0 {
			w.blocks = append(w.blocks, block{kind: domain.ItemTable, rows: rows})
		}
		return true
	case "img":
		w.blocks = append(w.blocks, block{kind: domain.ItemPicture, text: getAttr(n, "alt"), src: getAttr(n, "src")})
		return true
	}
	return false
}

// inline emits the text of n as one block, then any pictures or nested
// lists it contains.
func (w *htmlWalker) inline(n *html.Node, kind domain.ItemKind, ordered bool) {
	var nested []*html.Node
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode:
			tag := strings.ToLower(c.Data)
			if skipTags[tag] {
				return
			}
			if tag == "img" || tag == "ul" || tag == "ol" || tag == "table" || tag == "pre" {
				nested = append(nested, c)
				return
			}
			if tag == "br" || tag == "p" || tag == "div" {
				sb.WriteString(" ")
			}
			for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
				collect(cc)
			}
			if tag == "p" || tag == "div" {
				sb.WriteString(" ")
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}

	if text := collapseSpace(sb.String()); text != "" {
		w.blocks = append(w.blocks, block{kind: kind, text: text, ordered: ordered})
	}
	for _, c := range nested {
		w.walk(c, ordered)
	}
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "tr":
				var row []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (strings.EqualFold(c.Data, "td") || strings.EqualFold(c.Data, "th")) {
						row = append(row, collapseSpace(textContent(c)))
					}
				}
				if len(row) > 0 {
					rows = append(rows, row)
				}
				return
			case "table":
				if n != table {
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return rows
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipTags[strings.ToLower(n.Data)] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
