package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"markdown-extractor/internal/domain"
)

func newTestRouter(svc *MockConversionService) (http.Handler, *MockHandlerLogger) {
	cfg := NewMockConfig()
	logger := NewMockHandlerLogger()
	router := NewRouter(
		NewSystemHandler(svc, cfg, logger),
		NewConversionHandler(svc, cfg, logger),
		cfg,
		logger,
	)
	return router, logger
}

func TestNewRouter_Root(t *testing.T) {
	router, _ := newTestRouter(NewMockConversionService())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["service"] != "Markdown Extractor API" || body["status"] != "running" || body["model"] != "docling-q4_0.gguf" {
		t.Fatalf("unexpected root body: %v", body)
	}
}

func TestNewRouter_Health(t *testing.T) {
	router, _ := newTestRouter(NewMockConversionService())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"healthy"`) || !strings.Contains(rr.Body.String(), `"ready":true`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestNewRouter_HealthUnavailable(t *testing.T) {
	svc := NewMockConversionService()
	svc.readyErr = errors.New("model missing")
	router, logger := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Docling converter not initialized") {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if !logger.Has("WARN", "Health check failed") {
		t.Fatal("expected failed health check to be logged")
	}
}

func TestNewRouter_SupportedFormats(t *testing.T) {
	router, _ := newTestRouter(NewMockConversionService())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/supported-formats", nil))

	var body struct {
		Formats []domain.Format `json:"formats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(body.Formats) != 9 {
		t.Fatalf("expected 9 formats, got %d", len(body.Formats))
	}
	if body.Formats[0].Extension != ".pdf" || body.Formats[0].Description == "" {
		t.Fatalf("unexpected first format %+v", body.Formats[0])
	}
}

func TestNewRouter_NotFoundAndMethod(t *testing.T) {
	router, _ := newTestRouter(NewMockConversionService())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{method: http.MethodGet, path: "/nope", status: http.StatusNotFound},
		{method: http.MethodGet, path: "/convert", status: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/health", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected JSON error, got content type %q", ct)
			}
		})
	}
}

func TestNewRouter_CORSAndRequestID(t *testing.T) {
	router, logger := newTestRouter(NewMockConversionService())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a request ID header")
	}
	if !logger.Has("INFO", "HTTP request") {
		t.Fatal("expected request to be logged")
	}
}

func TestNewRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	router, _ := newTestRouter(NewMockConversionService())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestNewRouter_Convert(t *testing.T) {
	svc := NewMockConversionService()
	router, _ := newTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, multipartRequest(t, "file", "page.html", []byte("<p>hi</p>")))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if len(svc.Calls()) != 1 {
		t.Fatalf("expected one conversion, got %d", len(svc.Calls()))
	}
}
