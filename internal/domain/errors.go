package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEngineUnavailable   = errors.New("conversion engine not initialized")
	ErrExtractionFailed    = errors.New("all markdown export strategies failed")
	ErrUnsupportedByEngine = errors.New("format not supported by engine")
)

// FormatError rejects an upload whose extension is not on the allow-list.
type FormatError struct {
	Extension string
	Allowed   []string
}

func (e *FormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file type: %s. Allowed: %s", ext, strings.Join(e.Allowed, ", "))
}

// TimeoutError reports an engine call abandoned at its budget.
type TimeoutError struct {
	Extension string
	Budget    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("conversion of %s exceeded %s budget", e.Extension, e.Budget)
}
