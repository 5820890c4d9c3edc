package domain

import (
	"context"
	"time"
)

// Engine turns a staged file into a structured document.
// Implementations are opened once at startup and shared by all requests.
type Engine interface {
	Convert(ctx context.Context, path string) (Document, error)
	Model() string
	Close() error
}

// ImageCompressor shrinks an image so it fits maxWidth x maxHeight and
// re-encodes it at the given quality.
type ImageCompressor interface {
	ResizeAndRecompress(data []byte, maxWidth, maxHeight, quality int) ([]byte, error)
}

// ConversionService runs uploads through validation, the engine and
// Markdown extraction.
type ConversionService interface {
	Validate(filename string) (string, error)
	Convert(ctx context.Context, artifact UploadedArtifact) (*ResponsePayload, error)
	Ready() error
	Model() string
	BudgetFor(ext string) time.Duration
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetScratchDir() string
	GetEngine() string
	GetModelPath() string
	IsModelPathExplicit() bool
	GetDoclingURL() string
	GetImageTimeout() time.Duration
	GetDocumentTimeout() time.Duration
	GetProcessingProfile() string
	GetFailureReportingMode() string
	GetMaxConcurrentConversions() int
	GetMaxImagePixels() int64
	GetCORSAllowedOrigins() []string
}
