package service

import (
	"path"
	"path/filepath"
	"strings"

	"markdown-extractor/internal/domain"
	apperrors "markdown-extractor/pkg/errors"
)

// Validator checks declared filenames against the supported formats.
type Validator struct {
	allowed []string
}

// NewValidator creates a validator for the supported formats
func NewValidator() *Validator {
	return &Validator{allowed: domain.SupportedExtensions()}
}

// Validate returns the normalized extension of filename, or a validation
// AppError wrapping a *domain.FormatError when it is not accepted.
func (v *Validator) Validate(filename string) (string, error) {
	ext := NormalizeExtension(filename)
	if !domain.IsSupportedExtension(ext) {
		formatErr := &domain.FormatError{Extension: ext, Allowed: v.AllowedExtensions()}
		return "", apperrors.NewValidationError(
			"Unsupported file type: "+displayExtension(ext)+". Allowed: "+strings.Join(formatErr.Allowed, ", "),
			formatErr,
			ext,
		).WithSuggestion("Upload one of: " + strings.Join(formatErr.Allowed, ", "))
	}
	return ext, nil
}

// AllowedExtensions returns a copy of the sorted allow-list.
func (v *Validator) AllowedExtensions() []string {
	out := make([]string, len(v.allowed))
	copy(out, v.allowed)
	return out
}

// NormalizeExtension returns the lower-cased final dot-segment of the base
// name, including the dot. Leading dots belong to the name, so ".pdf" has no
// extension.
func NormalizeExtension(filename string) string {
	base := path.Base(filepath.ToSlash(strings.ReplaceAll(filename, `\`, "/")))
	name := strings.TrimLeft(base, ".")
	if name == "" {
		return ""
	}
	return strings.ToLower(filepath.Ext(name))
}

// SanitizeFilename strips any path components from a declared filename.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if base == "" || base == "." || base == "/" {
		return "document"
	}
	return base
}

func displayExtension(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}
