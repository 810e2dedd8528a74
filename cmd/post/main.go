package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/metalcon/newswidget/internal/composer"
	"github.com/metalcon/newswidget/internal/domain"
	"github.com/metalcon/newswidget/internal/graphity"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		message     string
		userID      string
		userName    string
		avatarURL   string
		createURL   string
		timeout     time.Duration
		echo        bool
		title       string
		description string
		link        string
		image       string
		video       string
	)

	flag.StringVar(&message, "message", "", "Status update text")
	flag.StringVar(&userID, "user-id", envOrDefault("WIDGET_USER_ID", ""), "Numeric user id sent as user_id")
	flag.StringVar(&userName, "name", envOrDefault("WIDGET_USER_NAME", ""), "Display name shown on the entry")
	flag.StringVar(&avatarURL, "avatar", envOrDefault("WIDGET_AVATAR_URL", domain.DefaultAvatarURL), "Avatar image URL")
	flag.StringVar(&createURL, "url", envOrDefault("GRAPHITY_CREATE_URL", graphity.DefaultCreateURL), "Create endpoint of the status update service")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	flag.BoolVar(&echo, "echo", false, "Render the submitted content instead of the placeholder on failure")
	flag.StringVar(&title, "preview-title", "", "Link preview title")
	flag.StringVar(&description, "preview-description", "", "Link preview description (required for the preview to be attached)")
	flag.StringVar(&link, "preview-url", "", "Link preview URL")
	flag.StringVar(&image, "preview-image", "", "Link preview image URL")
	flag.StringVar(&video, "preview-video", "", "Link preview video embed markup")
	flag.Parse()

	if message == "" {
		return fmt.Errorf("--message is required")
	}
	if userID == "" {
		return fmt.Errorf("--user-id is required (or set WIDGET_USER_ID)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	identity := domain.Identity{
		UserID:      userID,
		DisplayName: userName,
		AvatarURL:   avatarURL,
	}
	opts := composer.Options{}
	if echo {
		opts.Fallback = composer.FallbackEcho
	}

	client := graphity.NewClient(createURL, timeout)
	submitter, err := composer.NewSubmitter(identity, client, nil, opts, logger)
	if err != nil {
		return err
	}

	var preview *domain.LinkPreview
	if description != "" {
		preview = &domain.LinkPreview{
			Title:       title,
			Description: description,
			URL:         link,
			Video:       video,
			Image:       image,
		}
	}

	fmt.Printf("Posting status update as %s to %s...\n", userID, createURL)
	outcome, err := submitter.Submit(context.Background(), composer.Submission{
		Text:    message,
		Preview: preview,
	})
	if errors.Is(err, composer.ErrEmptyMessage) {
		return fmt.Errorf("message is blank, nothing sent")
	}
	if err != nil {
		return err
	}

	if outcome.Confirmed {
		fmt.Printf("Status update %s confirmed\n", outcome.Entry.ID)
	} else {
		fmt.Printf("Status update not confirmed: %v\n", outcome.Err)
	}
	fmt.Println(outcome.HTML)

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
