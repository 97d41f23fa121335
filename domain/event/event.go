package event

import (
	"text-hub/domain"

	"github.com/google/uuid"
)

// Wire names connected clients listen for.
const (
	ReceiveMessage      = "ReceiveMessage"
	UpdateGroupMessages = "UpdateGroupMessages"
)

// BroadcastEvent is a transient notification about a message mutation.
// Events are never persisted; they carry snapshots, not references into
// the store.
type BroadcastEvent interface {
	GroupID() uuid.UUID
	Name() string
}

// MessageCreated carries the single newly stored message.
type MessageCreated struct {
	Message domain.Message
}

func (e MessageCreated) GroupID() uuid.UUID { return e.Message.GroupID }

func (e MessageCreated) Name() string { return ReceiveMessage }

// MessagesUpdated carries the refreshed, ordered message list of the
// group after an edit. Consumers replace their whole view with it.
type MessagesUpdated struct {
	Group    uuid.UUID
	Messages []domain.Message
}

func (e MessagesUpdated) GroupID() uuid.UUID { return e.Group }

func (e MessagesUpdated) Name() string { return UpdateGroupMessages }

// MessagesDeleted carries the refreshed message list of the group after
// a removal. The list may be empty when the last message was deleted.
type MessagesDeleted struct {
	Group    uuid.UUID
	Messages []domain.Message
}

func (e MessagesDeleted) GroupID() uuid.UUID { return e.Group }

func (e MessagesDeleted) Name() string { return UpdateGroupMessages }
