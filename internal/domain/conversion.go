package domain

import "unicode/utf8"

// UploadedArtifact is the raw upload of a single request.
type UploadedArtifact struct {
	Filename  string
	Extension string
	Data      []byte
}

// Size returns the payload length in bytes.
func (a UploadedArtifact) Size() int64 {
	return int64(len(a.Data))
}

// Metadata holds the best-effort document metadata. Absent values are omitted
// so an empty Metadata encodes as {}.
type Metadata struct {
	Pages *int    `json:"pages,omitempty"`
	Title *string `json:"title,omitempty"`
}

// IsEmpty reports whether no metadata was extracted.
func (m Metadata) IsEmpty() bool {
	return m.Pages == nil && m.Title == nil
}

// ProcessingInfo reports what preprocessing did and which budget applied.
type ProcessingInfo struct {
	Compressed     bool  `json:"compressed"`
	OriginalSize   int64 `json:"original_size"`
	ProcessedSize  int64 `json:"processed_size"`
	TimeoutSeconds int   `json:"timeout_seconds"`
}

// ResponsePayload is the successful result of one conversion.
type ResponsePayload struct {
	Success        bool            `json:"success"`
	Filename       string          `json:"filename"`
	FileType       string          `json:"file_type"`
	Markdown       string          `json:"markdown"`
	Metadata       Metadata        `json:"metadata"`
	MarkdownLength int             `json:"markdown_length"`
	ProcessingInfo *ProcessingInfo `json:"processing_info,omitempty"`
}

// NewResponsePayload builds a success payload; the length is counted in
// characters, not bytes.
func NewResponsePayload(filename, fileType, markdown string, metadata Metadata, info *ProcessingInfo) *ResponsePayload {
	return &ResponsePayload{
		Success:        true,
		Filename:       filename,
		FileType:       fileType,
		Markdown:       markdown,
		Metadata:       metadata,
		MarkdownLength: utf8.RuneCountInString(markdown),
		ProcessingInfo: info,
	}
}

// FailurePayload is the JSON body of every failed request.
type FailurePayload struct {
	Success           bool     `json:"success"`
	Error             string   `json:"error"`
	Detail            string   `json:"detail"`
	Suggestion        string   `json:"suggestion,omitempty"`
	Filename          string   `json:"filename,omitempty"`
	FileType          string   `json:"file_type,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	TimeoutSeconds    int      `json:"timeout_seconds,omitempty"`
}
