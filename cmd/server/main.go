package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"markdown-extractor/internal/config"
	"markdown-extractor/internal/handler"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	envFile := flag.String("env-file", ".env", "path to a dotenv file")
	port := flag.String("port", "", "listening port (overrides PORT and SERVER_PORT)")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: %s not found or could not be loaded: %v", *envFile, err)
	}

	// Must run before config.Load, which sizes the conversion bound from
	// GOMAXPROCS.
	_, _ = maxprocs.Set(maxprocs.Logger(log.Printf))

	cfg, err := config.Load(config.LoadOptions{File: *configFile, Port: *port})
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Wiring
	container := config.NewContainer(context.Background(), cfg)
	logger := container.Logger

	// Handlers
	systemHandler := handler.NewSystemHandler(container.Orchestrator, cfg, logger)
	conversionHandler := handler.NewConversionHandler(container.Orchestrator, cfg, logger)

	// Router
	router := handler.NewRouter(systemHandler, conversionHandler, cfg, logger)

	// Writes must outlast the longest conversion budget.
	writeTimeout := cfg.GetDocumentTimeout()
	if cfg.GetImageTimeout() > writeTimeout {
		writeTimeout = cfg.GetImageTimeout()
	}
	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// Run server
	go func() {
		logger.Info("Server listening",
			"address", server.Addr,
			"engine", cfg.GetEngine(),
			"model", container.Orchestrator.Model(),
			"profile", cfg.GetProcessingProfile(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if err := container.Close(); err != nil {
		logger.Error("Failed to close conversion engine", err)
	}

	logger.Info("Server exited")
}
