//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"text-hub/domain/event"

	"github.com/google/uuid"
)

// EventSink is the per-connection delivery primitive owned by the
// transport collaborator. Consume must honour ctx cancellation and must
// never block indefinitely.
type EventSink interface {
	ID() string
	Consume(ctx context.Context, e event.BroadcastEvent) error
}

// IRegistry tracks which connections are currently subscribed to which
// group. Membership is ephemeral: it is rebuilt purely from live
// connections and holds no relation to persisted message history.
type IRegistry interface {
	Join(connectionID string, groupID uuid.UUID, sink EventSink)
	Leave(connectionID string, groupID uuid.UUID)
	OnConnectionClosed(connectionID string)
	MembersOf(groupID uuid.UUID) []string
	SinksFor(groupID uuid.UUID) []EventSink
}

// IDispatcher fans a broadcast event out to the current members of its
// group. Broadcast returns once delivery has been attempted to the full
// membership snapshot; per-member failures are observed, never returned.
type IDispatcher interface {
	Broadcast(ctx context.Context, e event.BroadcastEvent)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
