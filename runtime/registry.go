// Package runtime handles group membership and event propagation.
// It orchestrates delivery without containing domain rules.
package runtime

import (
	"sync"

	"text-hub/contract"

	"github.com/google/uuid"
)

type Set map[string]struct{}

// Registry tracks which live connections are subscribed to which group.
// Three maps are kept in sync under one lock:
//   - sinks:        connection id -> delivery sink (one per connection,
//     however many groups it joined)
//   - groupMembers: group id -> set of connection ids
//   - memberGroups: connection id -> set of group ids, the reverse index
//     that lets OnConnectionClosed clean up without knowing the groups
type Registry struct {
	mu           sync.RWMutex
	sinks        map[string]contract.EventSink
	groupMembers map[uuid.UUID]Set
	memberGroups map[string]map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:        make(map[string]contract.EventSink),
		groupMembers: make(map[uuid.UUID]Set),
		memberGroups: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Join subscribes a connection to a group. Joining twice is a no-op.
// The sink replaces any previously registered sink for the connection,
// so a reconnect under the same id swaps the delivery channel in place.
func (r *Registry) Join(connectionID string, groupID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[connectionID] = sink

	if _, ok := r.groupMembers[groupID]; !ok {
		r.groupMembers[groupID] = make(Set)
	}
	r.groupMembers[groupID][connectionID] = struct{}{}

	if _, ok := r.memberGroups[connectionID]; !ok {
		r.memberGroups[connectionID] = make(map[uuid.UUID]struct{})
	}
	r.memberGroups[connectionID][groupID] = struct{}{}
}

// Leave unsubscribes a connection from one group, keeping its other
// subscriptions intact. Leaving a group never joined is a no-op.
func (r *Registry) Leave(connectionID string, groupID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connectionID, groupID)
}

// OnConnectionClosed removes every subscription of a connection and its
// sink. Called by the transport when the client socket dies.
func (r *Registry) OnConnectionClosed(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for groupID := range r.memberGroups[connectionID] {
		r.leaveLocked(connectionID, groupID)
	}
	delete(r.sinks, connectionID)
}

func (r *Registry) leaveLocked(connectionID string, groupID uuid.UUID) {
	if members, ok := r.groupMembers[groupID]; ok {
		delete(members, connectionID)
		// No empty sets left behind, groups come and go with their members
		if len(members) == 0 {
			delete(r.groupMembers, groupID)
		}
	}
	if groups, ok := r.memberGroups[connectionID]; ok {
		delete(groups, groupID)
		if len(groups) == 0 {
			delete(r.memberGroups, connectionID)
		}
	}
}

// MembersOf returns a snapshot of the connection ids subscribed to a
// group at call time. The snapshot is not kept valid under concurrent
// join/leave activity.
func (r *Registry) MembersOf(groupID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.groupMembers[groupID]
	if !ok {
		return nil
	}
	snapshot := make([]string, 0, len(members))
	for connectionID := range members {
		snapshot = append(snapshot, connectionID)
	}
	return snapshot
}

// SinksFor resolves the current members of a group into their delivery
// sinks. Returns nil if the group has no subscribers.
func (r *Registry) SinksFor(groupID uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.groupMembers[groupID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connectionID := range members {
		if sink, exists := r.sinks[connectionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}
