package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/metalcon/newswidget/internal/render"
	"github.com/metalcon/newswidget/internal/stream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var streamURL string
	flag.StringVar(&streamURL, "url", envOrDefault("NEWSWIDGET_STREAM_URL", "ws://localhost:3000/stream"), "Websocket results stream URL")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subscriber := stream.NewSubscriber(streamURL, func(_ context.Context, ev *stream.Event) error {
		if ev.Kind != stream.KindEntry {
			return nil
		}
		sum, err := render.Summarize(ev.HTML)
		if err != nil {
			return err
		}
		mark := "ok"
		if !ev.Confirmed {
			mark = "unconfirmed"
		}
		fmt.Printf("[%s] %s %s (%s): %s\n", mark, sum.Date, sum.Actor, sum.Link, sum.Text)
		return nil
	}, logger)

	if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
