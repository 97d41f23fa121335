package runtime

import (
	"context"
	"sync"
	"testing"

	"text-hub/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	id string
}

func (s stubSink) ID() string { return s.id }

func (s stubSink) Consume(_ context.Context, _ event.BroadcastEvent) error { return nil }

func TestRegistry_Join_One_Group_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupID := uuid.New()
	sink := stubSink{id: connectionID}

	// Given an empty registry
	req.Empty(registry.MembersOf(groupID))

	// When a connection joins a group
	registry.Join(connectionID, groupID, sink)

	// Then it is the only member
	req.Equal([]string{connectionID}, registry.MembersOf(groupID))
	req.Len(registry.SinksFor(groupID), 1)
	req.Contains(registry.SinksFor(groupID), sink)
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupID := uuid.New()
	sink := stubSink{id: connectionID}

	// When a connection joins the same group twice
	registry.Join(connectionID, groupID, sink)
	registry.Join(connectionID, groupID, sink)

	// Then nothing is duplicated
	req.Len(registry.MembersOf(groupID), 1)
	req.Len(registry.SinksFor(groupID), 1)
}

func TestRegistry_Join_One_Group_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID1 := uuid.NewString()
	connectionID2 := uuid.NewString()
	groupID := uuid.New()
	sink1 := stubSink{id: connectionID1}
	sink2 := stubSink{id: connectionID2}

	registry.Join(connectionID1, groupID, sink1)
	registry.Join(connectionID2, groupID, sink2)

	req.Len(registry.MembersOf(groupID), 2)
	req.Len(registry.SinksFor(groupID), 2)
	req.Contains(registry.SinksFor(groupID), sink1)
	req.Contains(registry.SinksFor(groupID), sink2)
}

func TestRegistry_Leave_Keeps_Other_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID1 := uuid.NewString()
	connectionID2 := uuid.NewString()
	groupID := uuid.New()

	registry.Join(connectionID1, groupID, stubSink{id: connectionID1})
	registry.Join(connectionID2, groupID, stubSink{id: connectionID2})

	// When one connection leaves
	registry.Leave(connectionID1, groupID)

	// Then only the other remains
	req.Equal([]string{connectionID2}, registry.MembersOf(groupID))
	req.Len(registry.SinksFor(groupID), 1)
}

func TestRegistry_Leave_Unknown_Group_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupID := uuid.New()

	registry.Join(connectionID, groupID, stubSink{id: connectionID})

	// Leaving a group never joined changes nothing
	registry.Leave(connectionID, uuid.New())
	req.Len(registry.MembersOf(groupID), 1)
}

func TestRegistry_Leave_One_Group_Keeps_The_Other(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	groupA := uuid.New()
	groupB := uuid.New()
	sink := stubSink{id: connectionID}

	// Given one connection subscribed to two groups
	registry.Join(connectionID, groupA, sink)
	registry.Join(connectionID, groupB, sink)

	// When it leaves only one
	registry.Leave(connectionID, groupA)

	// Then the unrelated subscription survives
	req.Empty(registry.MembersOf(groupA))
	req.Equal([]string{connectionID}, registry.MembersOf(groupB))
	req.Len(registry.SinksFor(groupB), 1)
}

func TestRegistry_OnConnectionClosed_Removes_All_Subscriptions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	closing := uuid.NewString()
	staying := uuid.NewString()
	groupA := uuid.New()
	groupB := uuid.New()

	registry.Join(closing, groupA, stubSink{id: closing})
	registry.Join(closing, groupB, stubSink{id: closing})
	registry.Join(staying, groupA, stubSink{id: staying})

	// When the transport reports the connection gone
	registry.OnConnectionClosed(closing)

	// Then every subscription of that connection is dropped
	req.Equal([]string{staying}, registry.MembersOf(groupA))
	req.Empty(registry.MembersOf(groupB))
	req.Len(registry.SinksFor(groupA), 1)
}

func TestRegistry_Concurrent_Churn_Never_Drops_Unrelated_Group(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	stable := uuid.New()
	sink := stubSink{id: connectionID}

	// Given a subscription that should survive unrelated churn
	registry.Join(connectionID, stable, sink)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			churn := uuid.New()
			for j := 0; j < 100; j++ {
				registry.Join(connectionID, churn, sink)
				registry.MembersOf(stable)
				registry.Leave(connectionID, churn)
			}
		}()
	}
	wg.Wait()

	// Then the stable subscription is still there
	req.Equal([]string{connectionID}, registry.MembersOf(stable))
}
