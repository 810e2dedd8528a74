package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/metalcon/newswidget/internal/domain"
	"github.com/metalcon/newswidget/internal/graphity"
)

// Date styles for entry timestamps.
const (
	DateStyleLayout   = "layout"
	DateStyleRelative = "relative"
)

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int `yaml:"port"`

	Graphity GraphityConfig `yaml:"graphity"`
	Widget   WidgetConfig   `yaml:"widget"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// GraphityConfig points at the remote status update service.
type GraphityConfig struct {
	// CreateURL is the endpoint status updates are posted to.
	CreateURL string `yaml:"create_url"`

	Timeout time.Duration `yaml:"timeout"`
}

// WidgetConfig is the identity and behavior of the composer.
type WidgetConfig struct {
	// UserID is sent as user_id. The remote service requires a positive
	// integer.
	UserID string `yaml:"user_id"`

	UserName   string `yaml:"user_name"`
	AvatarURL  string `yaml:"avatar_url"`
	DateLayout string `yaml:"date_layout"`

	// DateStyle is "layout" or "relative".
	DateStyle string `yaml:"date_style"`

	// Fallback is "placeholder" or "echo".
	Fallback string `yaml:"fallback"`

	// SingleFlight rejects a submission while the previous one is pending.
	SingleFlight bool `yaml:"single_flight"`

	Title string `yaml:"title"`
}

// RateLimitConfig limits submissions per client address.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port: 3000,
		Graphity: GraphityConfig{
			CreateURL: graphity.DefaultCreateURL,
			Timeout:   30 * time.Second,
		},
		Widget: WidgetConfig{
			AvatarURL:    domain.DefaultAvatarURL,
			DateLayout:   domain.DefaultDateLayout,
			DateStyle:    DateStyleLayout,
			Fallback:     "placeholder",
			SingleFlight: true,
			Title:        "News",
		},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by NEWSWIDGET_CONFIG, and environment variables, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("NEWSWIDGET_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}

	setString(&c.Graphity.CreateURL, "GRAPHITY_CREATE_URL")
	if v := os.Getenv("GRAPHITY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GRAPHITY_TIMEOUT: %w", err)
		}
		c.Graphity.Timeout = d
	}

	setString(&c.Widget.UserID, "WIDGET_USER_ID")
	setString(&c.Widget.UserName, "WIDGET_USER_NAME")
	setString(&c.Widget.AvatarURL, "WIDGET_AVATAR_URL")
	setString(&c.Widget.DateLayout, "WIDGET_DATE_LAYOUT")
	setString(&c.Widget.DateStyle, "WIDGET_DATE_STYLE")
	setString(&c.Widget.Fallback, "WIDGET_FALLBACK")
	setString(&c.Widget.Title, "WIDGET_TITLE")
	if v := os.Getenv("WIDGET_SINGLE_FLIGHT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WIDGET_SINGLE_FLIGHT: %w", err)
		}
		c.Widget.SingleFlight = b
	}

	if v := os.Getenv("SUBMIT_RATE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SUBMIT_RATE_RPS: %w", err)
		}
		c.RateLimit.RPS = rps
	}
	if v := os.Getenv("SUBMIT_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUBMIT_RATE_BURST: %w", err)
		}
		c.RateLimit.Burst = burst
	}

	setString(&c.LogLevel, "LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Graphity.CreateURL == "" {
		return fmt.Errorf("GRAPHITY_CREATE_URL must not be empty")
	}
	if c.Graphity.Timeout <= 0 {
		return fmt.Errorf("graphity timeout must be positive")
	}

	if c.Widget.UserID == "" {
		return fmt.Errorf("WIDGET_USER_ID is required")
	}
	if id, err := strconv.ParseInt(c.Widget.UserID, 10, 64); err != nil || id <= 0 {
		return fmt.Errorf("WIDGET_USER_ID must be a positive integer, got %q", c.Widget.UserID)
	}

	switch c.Widget.DateStyle {
	case DateStyleLayout, DateStyleRelative:
	default:
		return fmt.Errorf("unknown date style %q", c.Widget.DateStyle)
	}
	switch c.Widget.Fallback {
	case "placeholder", "echo":
	default:
		return fmt.Errorf("unknown fallback %q", c.Widget.Fallback)
	}

	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Identity returns the composer identity described by the configuration.
func (c *Config) Identity() domain.Identity {
	format := domain.LayoutFormatter(c.Widget.DateLayout)
	if c.Widget.DateStyle == DateStyleRelative {
		format = domain.RelativeFormatter(time.Now)
	}
	return domain.Identity{
		UserID:      c.Widget.UserID,
		DisplayName: c.Widget.UserName,
		AvatarURL:   c.Widget.AvatarURL,
		Format:      format,
	}
}
