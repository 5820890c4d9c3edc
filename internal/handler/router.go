package handler

import (
	"net/http"

	"markdown-extractor/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	systemHandler *SystemHandler,
	conversionHandler *ConversionHandler,
	cfg domain.Config,
	logger domain.Logger,
) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/", systemHandler.Root).Methods("GET")
	router.HandleFunc("/health", systemHandler.Health).Methods("GET")
	router.HandleFunc("/supported-formats", systemHandler.SupportedFormats).Methods("GET")
	router.HandleFunc("/convert", conversionHandler.Convert).Methods("POST")

	router.Use(RecoveryMiddleware(logger))

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	return RequestIDMiddleware(LoggingMiddleware(logger)(c.Handler(router)))
}
