package handler

import (
	"context"
	"sync"
	"time"

	"markdown-extractor/internal/domain"
	"markdown-extractor/internal/service"
)

// Mock implementations for handler testing
type MockConversionService struct {
	mu        sync.Mutex
	validator *service.Validator
	readyErr  error
	convert   func(ctx context.Context, artifact domain.UploadedArtifact) (*domain.ResponsePayload, error)
	artifacts []domain.UploadedArtifact
}

func NewMockConversionService() *MockConversionService {
	return &MockConversionService{validator: service.NewValidator()}
}

func (m *MockConversionService) Validate(filename string) (string, error) {
	return m.validator.Validate(filename)
}

func (m *MockConversionService) Convert(ctx context.Context, artifact domain.UploadedArtifact) (*domain.ResponsePayload, error) {
	m.mu.Lock()
	m.artifacts = append(m.artifacts, artifact)
	m.mu.Unlock()
	if m.convert != nil {
		return m.convert(ctx, artifact)
	}
	return domain.NewResponsePayload(artifact.Filename, artifact.Extension, "# Title\n\nBody", domain.Metadata{}, nil), nil
}

func (m *MockConversionService) Ready() error { return m.readyErr }

func (m *MockConversionService) Model() string { return "docling-q4_0.gguf" }

func (m *MockConversionService) BudgetFor(ext string) time.Duration {
	if domain.IsImageExtension(ext) {
		return 90 * time.Second
	}
	return 120 * time.Second
}

func (m *MockConversionService) Calls() []domain.UploadedArtifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UploadedArtifact(nil), m.artifacts...)
}

type MockConfig struct {
	maxFileSize int64
	mode        string
	origins     []string
}

func NewMockConfig() *MockConfig {
	return &MockConfig{maxFileSize: 1024, mode: "http_status", origins: []string{"http://localhost:5173"}}
}

func (c *MockConfig) GetServerPort() string               { return "8080" }
func (c *MockConfig) GetLogLevel() string                 { return "debug" }
func (c *MockConfig) GetMaxFileSize() int64               { return c.maxFileSize }
func (c *MockConfig) GetScratchDir() string               { return "" }
func (c *MockConfig) GetEngine() string                   { return "native" }
func (c *MockConfig) GetModelPath() string                { return "/models/docling-q4_0.gguf" }
func (c *MockConfig) IsModelPathExplicit() bool           { return false }
func (c *MockConfig) GetDoclingURL() string               { return "" }
func (c *MockConfig) GetImageTimeout() time.Duration      { return 90 * time.Second }
func (c *MockConfig) GetDocumentTimeout() time.Duration   { return 120 * time.Second }
func (c *MockConfig) GetProcessingProfile() string        { return "constrained" }
func (c *MockConfig) GetFailureReportingMode() string     { return c.mode }
func (c *MockConfig) GetMaxConcurrentConversions() int    { return 1 }
func (c *MockConfig) GetMaxImagePixels() int64             { return 40_000_000 }
func (c *MockConfig) GetCORSAllowedOrigins() []string     { return c.origins }
