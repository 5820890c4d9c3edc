package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"markdown-extractor/internal/domain"
)

// Mock implementations for testing
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{messages: []string{}}
}

func (m *MockLogger) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, s)
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.add("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		msg += " - " + err.Error()
	}
	m.add("ERROR: " + msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.add("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.add("WARN: " + msg)
}

func (m *MockLogger) With(fields ...interface{}) domain.Logger {
	return m
}

func (m *MockLogger) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

func (m *MockLogger) Count(prefix string) int {
	n := 0
	for _, msg := range m.Messages() {
		if strings.HasPrefix(msg, prefix) {
			n++
		}
	}
	return n
}

// stubEngine records every call and delegates to convert.
type stubEngine struct {
	mu      sync.Mutex
	calls   int
	paths   []string
	seen    [][]byte
	convert func(ctx context.Context, path string) (domain.Document, error)
}

func (e *stubEngine) Convert(ctx context.Context, path string) (domain.Document, error) {
	data, _ := os.ReadFile(path)
	e.mu.Lock()
	e.calls++
	e.paths = append(e.paths, path)
	e.seen = append(e.seen, data)
	e.mu.Unlock()
	if e.convert == nil {
		return &stubDocument{markdown: "# Title\n\nBody"}, nil
	}
	return e.convert(ctx, path)
}

func (e *stubEngine) Model() string { return "stub-model" }

func (e *stubEngine) Close() error { return nil }

func (e *stubEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *stubEngine) LastPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.paths) == 0 {
		return ""
	}
	return e.paths[len(e.paths)-1]
}

func (e *stubEngine) LastData() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.seen) == 0 {
		return nil
	}
	return e.seen[len(e.seen)-1]
}

// stubDocument lets each strategy succeed, fail or panic independently.
type stubDocument struct {
	markdown      string
	defaultErr    error
	defaultPanic  bool
	optionsOutput string
	optionsErr    error
	items         []domain.ContentItem
	itemsErr      error
	pages         *int
	title         *string
	metaPanic     bool

	trace []string
	opts  *domain.ExportOptions
}

func (d *stubDocument) ExportMarkdown(opts *domain.ExportOptions) (string, error) {
	if opts == nil {
		d.trace = append(d.trace, "default")
		if d.defaultPanic {
			panic("export exploded")
		}
		if d.defaultErr != nil {
			return "", d.defaultErr
		}
		return d.markdown, nil
	}
	d.trace = append(d.trace, "options")
	d.opts = opts
	if d.optionsErr != nil {
		return "", d.optionsErr
	}
	return d.optionsOutput, nil
}

func (d *stubDocument) NumPages() (int, bool) {
	if d.metaPanic {
		panic("no pages here")
	}
	if d.pages == nil {
		return 0, false
	}
	return *d.pages, true
}

func (d *stubDocument) Title() (string, bool) {
	if d.title == nil {
		return "", false
	}
	return *d.title, true
}

func (d *stubDocument) Items() ([]domain.ContentItem, error) {
	d.trace = append(d.trace, "items")
	if d.itemsErr != nil {
		return nil, d.itemsErr
	}
	return d.items, nil
}

// stubCompressor returns a fixed output or error.
type stubCompressor struct {
	out   []byte
	err   error
	panic bool
	calls int
}

func (c *stubCompressor) ResizeAndRecompress(data []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	c.calls++
	if c.panic {
		panic("decoder crashed")
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.out, nil
}

var errExport = errors.New("export not available")

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
