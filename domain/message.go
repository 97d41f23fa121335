// Package domain contains core concepts of the messaging system.
// This file defines the Message entity and its invariants.
// No storage, network, or delivery logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat message.
// ID, GroupID and CreatedAt are assigned once and never change;
// only Body is mutable after creation.
type Message struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"groupId"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"` // empty for group-wide messages
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
