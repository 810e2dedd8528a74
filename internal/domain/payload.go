package domain

import (
	"math/rand/v2"
	"strconv"
)

const (
	// PayloadType is the create type understood by the remote service.
	PayloadType = "status_update"

	// StatusUpdateTypePlain selects the plain text status update template.
	StatusUpdateTypePlain = "Plain"

	statusUpdateIDPrefix = "AB"
	statusUpdateIDRange  = 1000000
)

// Form field names of the create request.
const (
	FieldType             = "type"
	FieldUserID           = "user_id"
	FieldStatusUpdateID   = "status_update_id"
	FieldMessage          = "message"
	FieldStatusUpdateType = "status_update_type"
)

// Payload is the set of named string fields sent to the remote service.
type Payload struct {
	Type             string
	UserID           string
	StatusUpdateID   string
	Message          string
	StatusUpdateType string
}

// NewPayload builds a plain status update payload.
func NewPayload(userID, statusUpdateID, message string) Payload {
	return Payload{
		Type:             PayloadType,
		UserID:           userID,
		StatusUpdateID:   statusUpdateID,
		Message:          message,
		StatusUpdateType: StatusUpdateTypePlain,
	}
}

// Field is a single named form value.
type Field struct {
	Name  string
	Value string
}

// Fields returns the payload in wire order.
func (p Payload) Fields() []Field {
	return []Field{
		{Name: FieldType, Value: p.Type},
		{Name: FieldUserID, Value: p.UserID},
		{Name: FieldStatusUpdateID, Value: p.StatusUpdateID},
		{Name: FieldMessage, Value: p.Message},
		{Name: FieldStatusUpdateType, Value: p.StatusUpdateType},
	}
}

// NewStatusUpdateID returns the client-side id of a status update: the
// prefix "AB" followed by a random integer in [0, 1000000). Ids are not
// collision free; two sessions can draw the same number.
func NewStatusUpdateID() string {
	return StatusUpdateIDFrom(rand.IntN)
}

// StatusUpdateIDFrom builds an id from the given source of random integers,
// which must return a value in [0, n).
func StatusUpdateIDFrom(intn func(n int) int) string {
	return statusUpdateIDPrefix + strconv.Itoa(intn(statusUpdateIDRange))
}
