package handler

import (
	"net/http"

	"markdown-extractor/internal/domain"
	apperrors "markdown-extractor/pkg/errors"
)

const (
	serviceName    = "Markdown Extractor API"
	serviceVersion = "1.0.0"
)

// SystemHandler serves the informational endpoints.
type SystemHandler struct {
	service domain.ConversionService
	engine  string
	logger  domain.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(service domain.ConversionService, cfg domain.Config, logger domain.Logger) *SystemHandler {
	return &SystemHandler{
		service: service,
		engine:  cfg.GetEngine(),
		logger:  logger,
	}
}

// Root describes the service.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": serviceName,
		"status":  "running",
		"version": serviceVersion,
		"model":   h.service.Model(),
		"engine":  h.engine,
	})
}

// Health reports 200 once the engine is ready and 503 otherwise.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(); err != nil {
		h.logger.Warn("Health check failed", "error", err)
		writeFailure(w, apperrors.NewUnavailableError("Docling converter not initialized", err).
			WithSuggestion("Check the engine configuration and logs"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"model":  h.service.Model(),
		"ready":  true,
	})
}

// SupportedFormats lists the accepted upload types.
func (h *SystemHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": domain.SupportedFormats(),
	})
}
