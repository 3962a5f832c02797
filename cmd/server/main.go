// Catálogo checkout service: session-aware, retry-safe order submission.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catalogo-app/checkout-go/internal/api"
	"github.com/catalogo-app/checkout-go/internal/checkout"
	"github.com/catalogo-app/checkout-go/internal/config"
	"github.com/catalogo-app/checkout-go/internal/identity"
	"github.com/catalogo-app/checkout-go/internal/kvstore"
	"github.com/catalogo-app/checkout-go/internal/middleware"
	"github.com/catalogo-app/checkout-go/internal/notify"
	"github.com/catalogo-app/checkout-go/internal/orders"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting checkout service", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Local persistent storage for the draft order and the security log.
	var kv kvstore.Store
	if cfg.KVPath != "" {
		pebbleKV, err := kvstore.OpenPebble(cfg.KVPath)
		if err != nil {
			slog.Error("Failed to open local kv store", "error", err, "path", cfg.KVPath)
			os.Exit(1)
		}
		kv = pebbleKV
	} else {
		slog.Warn("KV_PATH empty, draft and log state will not survive restarts")
		kv = kvstore.NewMemory()
	}
	defer func() {
		if closeErr := kv.Close(); closeErr != nil {
			slog.Error("Failed to close kv store", "error", closeErr)
		}
	}()

	// Order persistence backend.
	backend, err := orders.NewSQLite(cfg.OrderDBPath)
	if err != nil {
		slog.Error("Failed to initialize order database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("Failed to close order database", "error", closeErr)
		}
	}()

	if err := backend.Ping(context.Background()); err != nil {
		slog.Error("Order database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Order database connected")

	// External identity provider.
	idp := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey, logger)

	// Session-expiry notices over WebSocket.
	var origins []string
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	hub := notify.NewHub(logger, origins, cfg.IsDevelopment())

	ctrl := checkout.NewWithConfig(idp, backend, kv, checkout.Config{
		Notifier:      hub,
		Logger:        logger,
		Passphrase:    cfg.ObfuscationPassphrase,
		CheckInterval: cfg.ActivityCheckInterval,
		IdleTimeout:   cfg.SessionIdleTimeout,
	})
	defer ctrl.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	api.NewHealthHandler(backend).RegisterHealth(r)
	api.NewCheckoutHandler(ctrl).RegisterRoutes(r)

	// WebSocket endpoint for session notices.
	r.Get("/ws/notices", hub.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl.StartActivityMonitor(ctx)
	slog.Info("Activity monitor started",
		"idle_timeout", cfg.SessionIdleTimeout,
		"check_interval", cfg.ActivityCheckInterval)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
