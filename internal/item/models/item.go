package models

import (
	"fmt"
	"time"
)

// Item is a registered lost-item record. Identifier is the primary key and never
// changes once stored; re-registration overwrites the other fields.
type Item struct {
	Identifier    string
	ContactDigits string
	Message       string
	// Version starts at 1 and increases by one with every committed upsert.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultMessage is the message stored when the owner leaves none.
func DefaultMessage(identifier string) string {
	return fmt.Sprintf("If found, please scan this code to contact the owner of item %s.", identifier)
}

// DispatchResult confirms a notification accepted by the gateway.
type DispatchResult struct {
	// MessageID is the provider's opaque message reference.
	MessageID string
	// To is the dispatch address the message was sent to.
	To string
}

// OutboundMessage is a single message handed to the messaging gateway.
type OutboundMessage struct {
	From string
	To   string
	Body string
}
