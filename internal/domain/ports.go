package domain

import (
	"context"
	"html/template"
)

// StatusUpdateCreator sends a status update to the remote social service.
type StatusUpdateCreator interface {
	// CreateStatusUpdate performs exactly one create request. A nil error
	// means the service confirmed the update; any failure (transport error,
	// non-2xx status, unexpected body) is returned as an error.
	CreateStatusUpdate(ctx context.Context, payload Payload) error
}

// EntryPublisher receives confirmed entries so they can be prepended to the
// results list of the other connected pages.
type EntryPublisher interface {
	PublishEntry(entry RenderedEntry)
}

// RenderedEntry is an entry together with its list item markup.
type RenderedEntry struct {
	Entry Entry

	// HTML is the rendered list item.
	HTML template.HTML

	// Confirmed is true when the remote service accepted the update and the
	// entry shows the real content.
	Confirmed bool

	// Session identifies the page that submitted the entry. That page
	// renders the entry from its own response and is skipped by the stream.
	Session string
}
