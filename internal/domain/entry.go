package domain

import (
	"html/template"
	"strings"
)

// Entry is one item of the results list.
type Entry struct {
	// ID is the status update id; entries link to it.
	ID string

	// Date is the already formatted timestamp.
	Date string

	// ActorID is the id of the user who posted. It is carried but not shown.
	ActorID string

	// ActorName is the display name shown as the entry heading.
	ActorName string

	// Message is the message markup exactly as it was sent.
	Message string

	// Body is the escaped markup shown in the list item.
	Body template.HTML

	// AvatarURL is the image linked to the entry.
	AvatarURL string
}

// PlaceholderEntry is rendered when a submission fails. It carries fixed
// values instead of the submitted content and has no actor name.
func PlaceholderEntry(avatarURL string) Entry {
	return Entry{
		ID:        "1",
		Date:      "2",
		ActorID:   "3",
		Message:   "4",
		Body:      "4",
		AvatarURL: avatarURL,
	}
}

// LinkPreview is scraped metadata of a link attached to a message.
type LinkPreview struct {
	Title       string
	Description string
	URL         string

	// Video is an embeddable markup fragment. When set it wins over Image.
	Video string

	// Image is the source of the active preview picture.
	Image string
}

// HasDescription reports whether the preview carries a description. A link
// block is only attached to messages when it does.
func (p *LinkPreview) HasDescription() bool {
	return p != nil && strings.TrimSpace(p.Description) != ""
}

// HasVideo reports whether a video fragment is present.
func (p *LinkPreview) HasVideo() bool {
	return p != nil && strings.TrimSpace(p.Video) != ""
}

// HasImage reports whether an active image is present.
func (p *LinkPreview) HasImage() bool {
	return p != nil && strings.TrimSpace(p.Image) != ""
}
