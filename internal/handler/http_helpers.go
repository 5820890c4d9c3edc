// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"markdown-extractor/internal/domain"
	apperrors "markdown-extractor/pkg/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// failureFor builds the failure body and status for err. Errors that are not
// AppErrors are reported as internal failures without their text.
func failureFor(err error) (int, domain.FailurePayload) {
	payload := domain.FailurePayload{Success: false}

	appErr, ok := apperrors.As(err)
	if !ok {
		payload.Error = string(apperrors.ErrorTypeInternal)
		payload.Detail = "Internal server error"
		return http.StatusInternalServerError, payload
	}

	payload.Error = string(appErr.Type)
	payload.Detail = appErr.Message
	payload.Suggestion = appErr.Suggestion

	var formatErr *domain.FormatError
	if errors.As(err, &formatErr) {
		payload.FileType = formatErr.Extension
		payload.AllowedExtensions = formatErr.Allowed
	}
	var timeoutErr *domain.TimeoutError
	if errors.As(err, &timeoutErr) {
		payload.FileType = timeoutErr.Extension
		payload.TimeoutSeconds = int(math.Ceil(timeoutErr.Budget.Seconds()))
	}
	return appErr.StatusCode, payload
}

// writeFailure writes err as a failure payload.
func writeFailure(w http.ResponseWriter, err error) {
	status, payload := failureFor(err)
	writeJSON(w, status, payload)
}
