package domain

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultDateLayout is used when an Identity has no formatter.
const DefaultDateLayout = "02.01.2006 15:04"

// DefaultAvatarURL is the community image shown next to every entry.
const DefaultAvatarURL = "http://www.metalcon.de/images/metal-community.jpg"

// DateFormatter turns a point in time into the string shown on an entry.
type DateFormatter func(t time.Time) string

// LayoutFormatter formats dates with a fixed time layout.
func LayoutFormatter(layout string) DateFormatter {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return func(t time.Time) string {
		return t.Format(layout)
	}
}

// RelativeFormatter formats dates relative to now ("3 minutes ago").
func RelativeFormatter(now func() time.Time) DateFormatter {
	if now == nil {
		now = time.Now
	}
	return func(t time.Time) string {
		return humanize.RelTime(t, now(), "ago", "from now")
	}
}

// Identity is the acting user of a composer session plus the formatting
// context used when rendering that user's entries. It is supplied by the
// surrounding page, never resolved here.
type Identity struct {
	// UserID is sent as user_id with every status update.
	UserID string

	// DisplayName is shown as the actor name on confirmed entries.
	DisplayName string

	// AvatarURL is the image shown next to entries.
	AvatarURL string

	// Format renders entry dates. Nil means DefaultDateLayout.
	Format DateFormatter
}

// FormatDate renders t with the identity's formatter.
func (id Identity) FormatDate(t time.Time) string {
	if id.Format == nil {
		return t.Format(DefaultDateLayout)
	}
	return id.Format(t)
}

// Avatar returns the configured avatar or the community default.
func (id Identity) Avatar() string {
	if id.AvatarURL == "" {
		return DefaultAvatarURL
	}
	return id.AvatarURL
}
