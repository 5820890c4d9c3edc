package domain

import "sort"

// Format describes one accepted upload type.
type Format struct {
	Extension   string `json:"extension"`
	Description string `json:"description"`
	Image       bool   `json:"-"`
}

var supportedFormats = []Format{
	{Extension: ".pdf", Description: "PDF documents (native and scanned)"},
	{Extension: ".docx", Description: "Microsoft Word (2007+)"},
	{Extension: ".doc", Description: "Microsoft Word (legacy)"},
	{Extension: ".png", Description: "PNG images", Image: true},
	{Extension: ".jpg", Description: "JPEG images", Image: true},
	{Extension: ".jpeg", Description: "JPEG images", Image: true},
	{Extension: ".tiff", Description: "TIFF images", Image: true},
	{Extension: ".txt", Description: "Plain text files"},
	{Extension: ".html", Description: "HTML documents"},
}

// SupportedFormats returns a copy of the allow-list in display order.
func SupportedFormats() []Format {
	out := make([]Format, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// SupportedExtensions returns the allow-list sorted lexically.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		exts = append(exts, f.Extension)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedExtension reports whether ext (normalized) is accepted.
func IsSupportedExtension(ext string) bool {
	for _, f := range supportedFormats {
		if f.Extension == ext {
			return true
		}
	}
	return false
}

// IsImageExtension reports whether ext is one of the image formats.
func IsImageExtension(ext string) bool {
	for _, f := range supportedFormats {
		if f.Extension == ext {
			return f.Image
		}
	}
	return false
}
