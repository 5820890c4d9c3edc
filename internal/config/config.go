package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"markdown-extractor/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-yaml"
)

// Engine names
const (
	EngineNative  = "native"
	EngineDocling = "docling"
)

// Processing profiles
const (
	// ProfileConstrained preprocesses images and reports processing_info.
	ProfileConstrained = "constrained"
	ProfileStandard    = "standard"
)

// Failure reporting modes
const (
	ReportHTTPStatus  = "http_status"
	ReportPayloadFlag = "payload_flag"
)

const (
	defaultModelPath  = "/models/docling-q4_0.gguf"
	defaultDoclingURL = "http://localhost:5001"
	maxConfigFileSize = 1 << 20
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort               string   `yaml:"port"`
	LogLevel                 string   `yaml:"log_level"`
	MaxFileSize              int64    `yaml:"max_file_size"`
	ScratchDir               string   `yaml:"scratch_dir"`
	Engine                   string   `yaml:"engine"`
	ModelPath                string   `yaml:"model_path"`
	DoclingURL               string   `yaml:"docling_url"`
	ImageTimeoutSeconds      int      `yaml:"image_timeout_seconds"`
	DocumentTimeoutSeconds   int      `yaml:"document_timeout_seconds"`
	ProcessingProfile        string   `yaml:"processing_profile"`
	FailureReportingMode     string   `yaml:"failure_reporting_mode"`
	MaxConcurrentConversions int      `yaml:"max_concurrent_conversions"`
	MaxImagePixels           int64    `yaml:"max_image_pixels"`
	CORSAllowedOrigins       []string `yaml:"cors_allowed_origins"`

	modelPathExplicit bool
}

// LoadOptions carries the sources that sit outside the environment.
type LoadOptions struct {
	// File is an optional YAML file applied on top of the defaults.
	File string
	// Port overrides every other port source when set.
	Port string
}

// NewConfig creates a configuration from defaults and the environment
func NewConfig() domain.Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

// Load builds the configuration from defaults, the optional YAML file, the
// environment and the explicit overrides, in that order, and validates it.
func Load(opts LoadOptions) (*AppConfig, error) {
	cfg := defaults()

	if opts.File != "" {
		if err := cfg.applyFile(opts.File); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if opts.Port != "" {
		cfg.ServerPort = opts.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		ServerPort:               "8080",
		LogLevel:                 "info",
		MaxFileSize:              50 * 1024 * 1024, // 50MB default
		ScratchDir:               os.TempDir(),
		Engine:                   EngineNative,
		ModelPath:                defaultModelPath,
		DoclingURL:               defaultDoclingURL,
		ImageTimeoutSeconds:      90,
		DocumentTimeoutSeconds:   120,
		ProcessingProfile:        ProfileConstrained,
		FailureReportingMode:     ReportHTTPStatus,
		MaxConcurrentConversions: runtime.GOMAXPROCS(0),
		MaxImagePixels:           40_000_000,
		CORSAllowedOrigins:       []string{"*"},
	}
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	before := c.ModelPath
	if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if c.ModelPath != before {
		c.modelPathExplicit = true
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// Keep SERVER_PORT for local/dev compatibility.
	c.ServerPort = getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", c.ServerPort))
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.MaxFileSize = getEnvInt64OrDefault("MAX_FILE_SIZE", c.MaxFileSize)
	c.ScratchDir = getEnvOrDefault("SCRATCH_DIR", c.ScratchDir)
	c.Engine = strings.ToLower(getEnvOrDefault("ENGINE", c.Engine))
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.ModelPath = v
		c.modelPathExplicit = true
	}
	c.DoclingURL = getEnvOrDefault("DOCLING_URL", c.DoclingURL)
	c.ImageTimeoutSeconds = int(getEnvInt64OrDefault("IMAGE_TIMEOUT_SECONDS", int64(c.ImageTimeoutSeconds)))
	c.DocumentTimeoutSeconds = int(getEnvInt64OrDefault("DOCUMENT_TIMEOUT_SECONDS", int64(c.DocumentTimeoutSeconds)))
	c.ProcessingProfile = strings.ToLower(getEnvOrDefault("PROCESSING_PROFILE", c.ProcessingProfile))
	c.FailureReportingMode = strings.ToLower(getEnvOrDefault("FAILURE_REPORTING_MODE", c.FailureReportingMode))
	c.MaxConcurrentConversions = int(getEnvInt64OrDefault("MAX_CONCURRENT_CONVERSIONS", int64(c.MaxConcurrentConversions)))
	c.MaxImagePixels = getEnvInt64OrDefault("MAX_IMAGE_PIXELS", c.MaxImagePixels)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}
}

// Validate checks the configuration values
func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.By(isPort)),
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.ScratchDir, validation.Required),
		validation.Field(&c.Engine, validation.Required, validation.In(EngineNative, EngineDocling)),
		validation.Field(&c.DoclingURL, validation.When(c.Engine == EngineDocling, validation.Required)),
		validation.Field(&c.ImageTimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.DocumentTimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.ProcessingProfile, validation.Required, validation.In(ProfileConstrained, ProfileStandard)),
		validation.Field(&c.FailureReportingMode, validation.Required, validation.In(ReportHTTPStatus, ReportPayloadFlag)),
		validation.Field(&c.MaxConcurrentConversions, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxImagePixels, validation.Required, validation.Min(int64(1))),
	)
}

func isPort(value any) error {
	s, _ := value.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("must be a TCP port number")
	}
	return nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed upload size in bytes
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetScratchDir returns the directory for transient files
func (c *AppConfig) GetScratchDir() string {
	return c.ScratchDir
}

// GetEngine returns the conversion engine name
func (c *AppConfig) GetEngine() string {
	return c.Engine
}

// GetModelPath returns the engine model location
func (c *AppConfig) GetModelPath() string {
	return c.ModelPath
}

// IsModelPathExplicit reports whether the model path was configured rather
// than defaulted
func (c *AppConfig) IsModelPathExplicit() bool {
	return c.modelPathExplicit
}

// GetDoclingURL returns the docling-serve base URL
func (c *AppConfig) GetDoclingURL() string {
	return c.DoclingURL
}

// GetImageTimeout returns the engine budget for image uploads
func (c *AppConfig) GetImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutSeconds) * time.Second
}

// GetDocumentTimeout returns the engine budget for non-image uploads
func (c *AppConfig) GetDocumentTimeout() time.Duration {
	return time.Duration(c.DocumentTimeoutSeconds) * time.Second
}

// GetProcessingProfile returns the processing profile
func (c *AppConfig) GetProcessingProfile() string {
	return c.ProcessingProfile
}

// GetFailureReportingMode returns how conversion failures are reported
func (c *AppConfig) GetFailureReportingMode() string {
	return c.FailureReportingMode
}

// GetMaxConcurrentConversions returns the engine concurrency ceiling
func (c *AppConfig) GetMaxConcurrentConversions() int {
	return c.MaxConcurrentConversions
}

// GetMaxImagePixels returns the largest image raster decoded for preprocessing
func (c *AppConfig) GetMaxImagePixels() int64 {
	return c.MaxImagePixels
}

// GetCORSAllowedOrigins returns the allowed CORS origins
func (c *AppConfig) GetCORSAllowedOrigins() []string {
	return c.CORSAllowedOrigins
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
