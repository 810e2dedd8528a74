// Package composer implements the submission side of the status update
// composer: it turns the composer's text and link preview into a payload,
// sends it once, and renders the entry that goes on top of the results list.
package composer

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/metalcon/newswidget/internal/domain"
	"github.com/metalcon/newswidget/internal/render"
)

var (
	// ErrEmptyMessage is returned when the message text is blank. Nothing is
	// sent and nothing is rendered.
	ErrEmptyMessage = errors.New("empty message")

	// ErrInFlight is returned when single-flight is enabled and a previous
	// submission of the same composer has not finished yet.
	ErrInFlight = errors.New("submission already in flight")
)

// FallbackMode selects what a failed submission renders.
type FallbackMode string

const (
	// FallbackPlaceholder renders the fixed placeholder entry ("1", "2",
	// "3", "4") and drops the submitted content.
	FallbackPlaceholder FallbackMode = "placeholder"

	// FallbackEcho renders the submitted content, unconfirmed.
	FallbackEcho FallbackMode = "echo"
)

// Outcome labels passed to a Recorder.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeFallback  = "fallback"
	OutcomeIgnored   = "ignored"
	OutcomeInFlight  = "in_flight"
)

// Recorder observes submissions. The duration is the time spent on the
// remote call and is zero when no call was made.
type Recorder interface {
	ObserveSubmission(outcome string, d time.Duration)
}

// Options tunes a Submitter. The zero value gives the legacy behavior:
// placeholder fallback and overlapping submissions.
type Options struct {
	Fallback FallbackMode

	// SingleFlight rejects a submission while another one is outstanding.
	SingleFlight bool

	// Now and NewID default to time.Now and domain.NewStatusUpdateID.
	Now   func() time.Time
	NewID func() string

	Recorder Recorder
}

// Submission is what the composer holds when the submit control fires.
type Submission struct {
	Text    string
	Preview *domain.LinkPreview

	// Session identifies the submitting page, if known.
	Session string
}

// Outcome is the single result of a submission.
type Outcome struct {
	Entry domain.Entry
	HTML  template.HTML

	// Confirmed is true when the remote service accepted the update.
	Confirmed bool

	// Err is the failure that led to the fallback entry.
	Err error
}

// Submitter is the submission handler of one composer. The identity is
// fixed for its lifetime.
type Submitter struct {
	identity  domain.Identity
	creator   domain.StatusUpdateCreator
	publisher domain.EntryPublisher
	opts      Options
	logger    *slog.Logger

	inFlight atomic.Bool
}

// NewSubmitter creates a Submitter. The publisher may be nil when entries
// are only returned to the caller.
func NewSubmitter(
	identity domain.Identity,
	creator domain.StatusUpdateCreator,
	publisher domain.EntryPublisher,
	opts Options,
	logger *slog.Logger,
) (*Submitter, error) {
	if identity.UserID == "" {
		return nil, fmt.Errorf("identity: user id is required")
	}
	if creator == nil {
		return nil, fmt.Errorf("status update creator is required")
	}

	switch opts.Fallback {
	case "":
		opts.Fallback = FallbackPlaceholder
	case FallbackPlaceholder, FallbackEcho:
	default:
		return nil, fmt.Errorf("unknown fallback mode %q", opts.Fallback)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = domain.NewStatusUpdateID
	}

	return &Submitter{
		identity:  identity,
		creator:   creator,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Submit sends one status update and renders its entry. Blank text returns
// ErrEmptyMessage without sending. A failed request is not an error: the
// outcome then holds the fallback entry and the cause.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if strings.TrimSpace(sub.Text) == "" {
		s.record(OutcomeIgnored, 0)
		return nil, ErrEmptyMessage
	}

	if s.opts.SingleFlight {
		if !s.inFlight.CompareAndSwap(false, true) {
			s.record(OutcomeInFlight, 0)
			return nil, ErrInFlight
		}
		defer s.inFlight.Store(false)
	}

	message, err := render.Message(sub.Text, sub.Preview)
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}
	body, err := render.Body(sub.Text, sub.Preview)
	if err != nil {
		return nil, fmt.Errorf("build body: %w", err)
	}

	now := s.opts.Now()
	payload := domain.NewPayload(s.identity.UserID, s.opts.NewID(), message)

	start := time.Now()
	sendErr := s.creator.CreateStatusUpdate(ctx, payload)
	elapsed := time.Since(start)

	outcome := &Outcome{Confirmed: sendErr == nil, Err: sendErr}
	if sendErr == nil {
		outcome.Entry = s.entry(payload, body, now)
		s.record(OutcomeConfirmed, elapsed)
		s.logger.Info("status update created",
			"status_update_id", payload.StatusUpdateID,
			"user_id", payload.UserID,
			"duration", elapsed,
		)
	} else {
		outcome.Entry = s.fallback(payload, body, now)
		s.record(OutcomeFallback, elapsed)
		s.logger.Warn("status update failed, rendering fallback",
			"status_update_id", payload.StatusUpdateID,
			"user_id", payload.UserID,
			"fallback", s.opts.Fallback,
			"error", sendErr,
		)
	}

	outcome.HTML, err = render.Entry(outcome.Entry)
	if err != nil {
		return nil, fmt.Errorf("render entry: %w", err)
	}

	// Fallback entries belong to the submitting page only.
	if s.publisher != nil && outcome.Confirmed {
		s.publisher.PublishEntry(domain.RenderedEntry{
			Entry:     outcome.Entry,
			HTML:      outcome.HTML,
			Confirmed: true,
			Session:   sub.Session,
		})
	}
	return outcome, nil
}

func (s *Submitter) entry(p domain.Payload, body template.HTML, now time.Time) domain.Entry {
	return domain.Entry{
		ID:        p.StatusUpdateID,
		Date:      s.identity.FormatDate(now),
		ActorID:   p.UserID,
		ActorName: s.identity.DisplayName,
		Message:   p.Message,
		Body:      body,
		AvatarURL: s.identity.Avatar(),
	}
}

func (s *Submitter) fallback(p domain.Payload, body template.HTML, now time.Time) domain.Entry {
	if s.opts.Fallback == FallbackEcho {
		return s.entry(p, body, now)
	}
	return domain.PlaceholderEntry(s.identity.Avatar())
}

func (s *Submitter) record(outcome string, d time.Duration) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.ObserveSubmission(outcome, d)
	}
}
