package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"markdown-extractor/internal/config"
	"markdown-extractor/internal/domain"
	apperrors "markdown-extractor/pkg/errors"
)

const (
	uploadField = "file"
	// multipartOverhead leaves room for boundaries and part headers on top of
	// the file size limit.
	multipartOverhead = 1 << 20
)

// ConversionHandler serves POST /convert.
type ConversionHandler struct {
	service     domain.ConversionService
	logger      domain.Logger
	maxFileSize int64
	payloadFlag bool
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(service domain.ConversionService, cfg domain.Config, logger domain.Logger) *ConversionHandler {
	return &ConversionHandler{
		service:     service,
		logger:      logger,
		maxFileSize: cfg.GetMaxFileSize(),
		payloadFlag: cfg.GetFailureReportingMode() == config.ReportPayloadFlag,
	}
}

// Convert streams the multipart upload, validates the declared filename
// before reading the file body and runs the conversion.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("request_id", RequestIDFromContext(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		h.fail(w, apperrors.NewBadRequestError("Request must be multipart/form-data with a file field"), "")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			h.fail(w, apperrors.NewBadRequestError("File is required"), "")
			return
		}
		if err != nil {
			h.fail(w, h.readError(err), "")
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_, _ = io.Copy(io.Discard, part)
			_ = part.Close()
			continue
		}

		filename := part.FileName()
		ext, err := h.service.Validate(filename)
		if err != nil {
			_ = part.Close()
			log.Warn("Rejected upload", "filename", filename, "error", err)
			h.fail(w, err, filename)
			return
		}

		data, err := io.ReadAll(io.LimitReader(part, h.maxFileSize+1))
		_ = part.Close()
		if err != nil {
			h.fail(w, h.readError(err), filename)
			return
		}
		if int64(len(data)) > h.maxFileSize {
			h.fail(w, h.tooLarge(), filename)
			return
		}

		payload, err := h.service.Convert(r.Context(), domain.UploadedArtifact{
			Filename:  filename,
			Extension: ext,
			Data:      data,
		})
		if err != nil {
			h.fail(w, err, filename)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}
}

func (h *ConversionHandler) readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return h.tooLarge()
	}
	return apperrors.NewBadRequestError("Malformed multipart body: " + err.Error())
}

func (h *ConversionHandler) tooLarge() error {
	return apperrors.NewTooLargeError(fmt.Sprintf("File too large. Maximum size is %d bytes", h.maxFileSize)).
		WithSuggestion("Split the document or compress it before uploading")
}

// fail writes err, downgrading conversion failures to 200 in payload_flag mode.
func (h *ConversionHandler) fail(w http.ResponseWriter, err error, filename string) {
	status, payload := failureFor(err)
	payload.Filename = filename
	if h.payloadFlag && apperrors.IsType(err, apperrors.ErrorTypeConversion) {
		status = http.StatusOK
	}
	writeJSON(w, status, payload)
}
