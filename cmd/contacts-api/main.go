// main is the entry point of the contacts API.
//
// Startup sequence:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open storage, optionally fronted by the redis list cache
//  4. Build the gin router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal arrives, then shut down gracefully
//
// Running the server:
//
//	go run ./cmd/contacts-api --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/contacts-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/contact-manager/internal/config"
	"github.com/aanand-mishra/contact-manager/internal/http/router"
	"github.com/aanand-mishra/contact-manager/internal/storage"
	"github.com/aanand-mishra/contact-manager/internal/storage/cache"
	"github.com/aanand-mishra/contact-manager/internal/storage/postgres"
	"github.com/aanand-mishra/contact-manager/internal/storage/sqlite"
	"github.com/aanand-mishra/contact-manager/internal/validation"
)

const (
	serviceName = "contacts-api"
	version     = "1.0.0"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting contacts-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	store, err := openStorage(context.Background(), cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised",
		slog.String("driver", cfg.Storage.Driver),
		slog.Bool("cache", cfg.Cache.RedisAddr != ""),
	)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := router.Build(router.Deps{
		ServiceName: serviceName,
		Version:     version,
		Store:       store,
		Validator:   validation.New(),
		Log:         log,
		CORSOrigins: cfg.HTTPServer.CORSOrigins,
		RateLimit:   cfg.HTTPServer.RateLimit,
		Burst:       cfg.HTTPServer.Burst,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ErrServerClosed is the normal result of Shutdown
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStorage picks the driver named in the config and wraps it with the
// redis list cache when an address is configured.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, postgres.Options{DSN: cfg.Storage.DSN})
	default:
		store, err = sqlite.New(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.RedisAddr == "" {
		return store, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		store.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return cache.New(store, client, cfg.Cache.TTL), nil
}

// setupLogger returns a text logger for dev and a JSON logger otherwise.
// Production logs INFO and above; everything else logs DEBUG.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
