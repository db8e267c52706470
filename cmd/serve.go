package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/counsel0/counsel/internal/api"
	"github.com/counsel0/counsel/internal/config"
	"github.com/counsel0/counsel/internal/engine"
	"github.com/counsel0/counsel/internal/observability"
	"github.com/counsel0/counsel/internal/provider"
	"github.com/counsel0/counsel/internal/toolcall"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 10 * time.Minute // SSE turn-loops can run long
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// Provider rate limit defaults shared across conversations.
const (
	defaultRateLimit = 10 // provider rounds per second
	defaultRateBurst = 30
)

// parseRateBurst reads COUNSEL_RATE_BURST from the environment.
// Returns the default if unset or invalid.
func parseRateBurst() int {
	v := os.Getenv("COUNSEL_RATE_BURST")
	if v == "" {
		return defaultRateBurst
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultRateBurst
	}
	return n
}

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr, err := parseServeAddr(cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP API server", "version", Version, "config", cfg.String())

	shutdownTracing, err := observability.Setup(ctx, cfg.Otel, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if flushErr := shutdownTracing(flushCtx); flushErr != nil {
			logger.Warn("trace flush failed", "error", flushErr)
		}
	}()

	client, err := provider.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}

	servers := cfg.ToolServers
	if len(servers) == 0 {
		servers = config.DefaultToolServers()
	}

	router := toolcall.NewRouter(logger)
	if err := router.Connect(ctx, servers); err != nil {
		return fmt.Errorf("connecting tool servers: %w", err)
	}
	defer router.Close()
	logger.Info("tool servers connected", "tools", router.Tools())

	executor := toolcall.NewExecutor(router, logger,
		time.Duration(cfg.ToolTimeoutSeconds)*time.Second)

	limiter := rate.NewLimiter(rate.Limit(defaultRateLimit), parseRateBurst())

	controller := engine.NewController(client, executor, logger, limiter, engine.Options{
		Model:               cfg.ModelName,
		System:              buildSystemPrompt(router.Tools()),
		MaxTokens:           cfg.MaxTokens,
		Temperature:         cfg.Temperature,
		MaxSteps:            cfg.MaxSteps,
		ProviderTimeout:     time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		SeparateTitleEvents: cfg.SeparateTitleEvents,
	})

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Controller:  controller,
		Provider:    client,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"provider", client.Name(),
		"api", "/api/v1/*",
		"health", "/healthz, /readyz",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
