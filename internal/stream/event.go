package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// KindEntry is the kind of events carrying a new results list entry.
const KindEntry = "entry"

// Event is the JSON message sent to stream subscribers.
type Event struct {
	Kind string `json:"kind"`

	// ID is the status update id the entry links to.
	ID string `json:"id"`

	// HTML is the rendered list item, ready to be prepended.
	HTML string `json:"html"`

	Confirmed bool      `json:"confirmed"`
	At        time.Time `json:"at"`
}

func parseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.Kind == "" {
		return nil, fmt.Errorf("event without kind")
	}
	return &ev, nil
}
