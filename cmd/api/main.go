// Package main is the entry point for the palette registry API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/palette/internal/api"
	"github.com/onnwee/palette/internal/audit"
	"github.com/onnwee/palette/internal/auth"
	"github.com/onnwee/palette/internal/config"
	"github.com/onnwee/palette/internal/middleware"
	"github.com/onnwee/palette/internal/oracle"
	"github.com/onnwee/palette/internal/registry"
	"github.com/onnwee/palette/internal/tracing"
)

const serviceName = "palette-registry"

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Palette Registry API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  serviceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: 1.0,
		Insecure:     cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown tracing", "error", err)
		}
	}()

	// Select the attribute store: Postgres when configured, in-memory
	// otherwise.
	var store registry.Store
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = registry.NewPostgresStore(db, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = registry.NewMemoryStore()
	}

	// Select the ownership oracle: remote service when configured, empty
	// static oracle otherwise (every ownership check then fails closed).
	var ownership registry.OwnershipOracle
	if cfg.OracleURL != "" {
		ownership = oracle.NewClient(cfg.OracleURL)
	} else {
		logger.Warn("ORACLE_URL not set, using empty static oracle")
		ownership = oracle.NewStaticOracle()
	}

	access := registry.NewAccessControl(cfg.AdminAddress, cfg.PrimaryCollection)
	reg := registry.New(access, store, ownership, logger)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTSecretPrevious)
	auditRepo := audit.NewMemoryRepository()

	metrics := middleware.NewMetrics()
	promRegistry := prometheus.NewRegistry()
	if err := metrics.Register(promRegistry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	registryHandlers := api.NewRegistryHandlers(reg, auditRepo, metrics)
	healthHandlers := api.NewHealthHandlers(db)

	mux := http.NewServeMux()
	mux.HandleFunc("/renderer", registryHandlers.SetRenderer)
	mux.HandleFunc("/collections", registryHandlers.AddCollection)
	mux.HandleFunc("/collections/", registryHandlers.Collections)
	mux.HandleFunc("/addresses/", registryHandlers.Addresses)
	mux.HandleFunc("/audit", registryHandlers.AuditEvents)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"palette-registry","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: Tracing -> RequestID -> Logging -> Metrics -> Auth
	handler := middleware.Tracing(serviceName)(
		middleware.RequestID(
			middleware.Logging(logger)(
				middleware.HTTPMetrics(metrics)(
					middleware.Auth(jwtService)(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
