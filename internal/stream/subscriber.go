package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBackoff = 5 * time.Second

// Handler is called for every event received by a Subscriber.
type Handler func(ctx context.Context, ev *Event) error

// Subscriber follows an entry stream and hands each event to a handler.
type Subscriber struct {
	url     string
	handler Handler
	logger  *slog.Logger
	backoff time.Duration
}

// NewSubscriber creates a new stream subscriber.
func NewSubscriber(streamURL string, handler Handler, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		url:     streamURL,
		handler: handler,
		logger:  logger,
		backoff: defaultBackoff,
	}
}

// Start connects to the stream and processes events until the context is
// cancelled. It reconnects after a backoff when the connection drops.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Error("stream connection error, reconnecting", "error", err, "backoff", s.backoff)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.backoff):
				}
			}
		}
	}
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	s.logger.Info("connecting to stream", "url", s.url)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	// ReadMessage does not observe the context; closing the connection
	// unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.logger.Info("connected to stream")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		ev, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		if err := s.handler(ctx, ev); err != nil {
			s.logger.Error("failed to handle event", "id", ev.ID, "kind", ev.Kind, "error", err)
		}
	}
}
