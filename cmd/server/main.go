package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/metalcon/newswidget/internal/composer"
	"github.com/metalcon/newswidget/internal/config"
	"github.com/metalcon/newswidget/internal/graphity"
	"github.com/metalcon/newswidget/internal/httpserver"
	"github.com/metalcon/newswidget/internal/metrics"
	"github.com/metalcon/newswidget/internal/stream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	hub := stream.NewHub(logger)
	metrics.RegisterSubscribers(reg, hub.Subscribers)

	client := graphity.NewClient(cfg.Graphity.CreateURL, cfg.Graphity.Timeout)
	submitter, err := composer.NewSubmitter(cfg.Identity(), client, hub, composer.Options{
		Fallback:     composer.FallbackMode(cfg.Widget.Fallback),
		SingleFlight: cfg.Widget.SingleFlight,
		Recorder:     m,
	}, logger)
	if err != nil {
		return fmt.Errorf("create submitter: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, submitter, hub, reg, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started",
		"port", cfg.Port,
		"graphity", cfg.Graphity.CreateURL,
		"user_id", cfg.Widget.UserID,
	)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
