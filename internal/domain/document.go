package domain

// ImageMode controls how pictures are rendered by a Markdown export.
type ImageMode string

const (
	ImageModeDefault     ImageMode = ""
	ImageModePlaceholder ImageMode = "placeholder"
	ImageModeEmbedded    ImageMode = "embedded"
)

// TableMode controls how tables are rendered by a Markdown export.
type TableMode string

const (
	TableModeDefault  TableMode = ""
	TableModeMarkdown TableMode = "markdown"
	TableModeText     TableMode = "text"
)

// ImagePlaceholder is written in place of a picture in placeholder mode.
const ImagePlaceholder = "<!-- image -->"

// ExportOptions tunes a Markdown export. A nil *ExportOptions means the
// engine's defaults.
type ExportOptions struct {
	ImageMode ImageMode
	TableMode TableMode
}

// ItemKind labels a body item of a converted document.
type ItemKind string

const (
	ItemTitle     ItemKind = "title"
	ItemHeading   ItemKind = "section_header"
	ItemParagraph ItemKind = "paragraph"
	ItemListItem  ItemKind = "list_item"
	ItemCode      ItemKind = "code"
	ItemTable     ItemKind = "table"
	ItemPicture   ItemKind = "picture"
)

// ContentItem is one element of a document body, in reading order.
// Text is empty for items that carry no text (pictures, empty cells).
type ContentItem struct {
	Kind  ItemKind
	Level int
	Text  string
	Page  int
}

// HasText reports whether the item exposes non-empty text.
func (c ContentItem) HasText() bool {
	return c.Text != ""
}

// Document is the engine's handle on a converted file. Any method may fail;
// callers must not assume an export strategy succeeds.
type Document interface {
	ExportMarkdown(opts *ExportOptions) (string, error)
	NumPages() (int, bool)
	Title() (string, bool)
	Items() ([]ContentItem, error)
}
