// Package docling delegates conversion to a docling-serve sidecar over HTTP.
package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"markdown-extractor/internal/domain"
)

const (
	healthPath  = "/health"
	convertPath = "/v1/convert/file"
	probeBudget = 10 * time.Second
)

// Options configures the sidecar client.
type Options struct {
	BaseURL string
	// Model is reported by the service; the sidecar picks its own pipeline.
	Model      string
	HTTPClient *http.Client
}

// Client implements domain.Engine against docling-serve.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  domain.Logger
}

// Open probes the sidecar's health endpoint and returns a client.
func Open(ctx context.Context, opts Options, logger domain.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("docling URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	model := opts.Model
	if model == "" {
		model = "docling-serve"
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   model,
		http:    httpClient,
		logger:  logger,
	}

	ctx, cancel := context.WithTimeout(ctx, probeBudget)
	defer cancel()
	if err := c.probe(ctx); err != nil {
		return nil, err
	}

	logger.Info("Docling sidecar ready", "url", c.baseURL, "model", c.model)
	return c, nil
}

func (c *Client) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("docling sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("docling sidecar unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// convertResponse is the subset of the docling-serve reply we read.
type convertResponse struct {
	Document struct {
		Filename string          `json:"filename"`
		Markdown *string         `json:"md_content"`
		Text     string          `json:"text_content"`
		JSON     json.RawMessage `json:"json_content"`
	} `json:"document"`
	Status string   `json:"status"`
	Errors []string `json:"errors"`
}

// Convert uploads the file and parses the reply. The request is bound to ctx.
func (c *Client) Convert(ctx context.Context, path string) (domain.Document, error) {
	body, contentType, err := multipartBody(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create convert request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docling request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read docling response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docling returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed convertResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode docling response: %w", err)
	}
	if parsed.Status != "" && parsed.Status != "success" && parsed.Status != "partial_success" {
		return nil, fmt.Errorf("docling conversion %s: %s", parsed.Status, strings.Join(parsed.Errors, "; "))
	}

	c.logger.Debug("Docling conversion finished", "file", filepath.Base(path), "elapsed", time.Since(start))
	doc, err := newDocument(parsed.Document.Markdown, parsed.Document.JSON)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func multipartBody(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, format := range []string{"md", "json"} {
		if err := w.WriteField("to_formats", format); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("image_export_mode", "embedded"); err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Close releases idle connections to the sidecar.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
