package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"json-storage/handlers"
	"json-storage/stores"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultMaxBodyBytes = 5000000

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogging() {
	level, err := logrus.ParseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		logrus.WithField("error", err).Warn("Invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	err := run(ctx)
	stop()
	if err != nil {
		logrus.WithField("error", err).Error("Server exited")
		os.Exit(1)
	}
}

// run serves until ctx is done or the listener fails. The store is closed
// on every return path.
func run(ctx context.Context) error {
	cfg, err := stores.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("invalid storage configuration: %w", err)
	}
	maxBodyBytes, err := strconv.ParseInt(env("MAX_BODY_BYTES", strconv.Itoa(defaultMaxBodyBytes)), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid MAX_BODY_BYTES: %w", err)
	}
	documentStore, err := stores.GetStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}
	if c, ok := documentStore.(io.Closer); ok {
		defer c.Close()
	}

	r := handlers.NewRouter(documentStore, handlers.Options{
		StoragePath:    cfg.StoragePath,
		Version:        version,
		AllowedOrigins: strings.Split(env("ALLOWED_ORIGINS", "https://*,http://*"), ","),
		MaxBodyBytes:   maxBodyBytes,
	})

	addr := env("LISTEN_ADDR", ":8000")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
