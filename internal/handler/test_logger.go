package handler

import (
	"strings"
	"sync"

	"markdown-extractor/internal/domain"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct {
	mu      sync.Mutex
	entries []string
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})  { l.record("INFO", msg) }
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) { l.record("DEBUG", msg) }
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  { l.record("WARN", msg) }
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.record("ERROR", msg)
}
func (l *MockHandlerLogger) With(fields ...interface{}) domain.Logger { return l }

// Has reports whether an entry with the given level prefix and message was logged.
func (l *MockHandlerLogger) Has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.HasPrefix(e, level+": ") && strings.Contains(e, msg) {
			return true
		}
	}
	return false
}
