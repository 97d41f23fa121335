package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"text-hub/domain"
	"text-hub/domain/event"
	"text-hub/runtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func dialTestClient(t *testing.T, registry *runtime.Registry) *websocket.Conn {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	handler := NewHandler(log, registry, 8)
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClient_Join_Then_Receive_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conn := dialTestClient(t, registry)
	group := uuid.New()

	// When the client joins a group
	req.NoError(conn.WriteJSON(map[string]any{"action": "join", "groupId": group}))

	// Then the registry eventually knows it (the read pump is async)
	req.Eventually(func() bool {
		return len(registry.MembersOf(group)) == 1
	}, time.Second, 10*time.Millisecond)

	// When an event is delivered to its sink
	sinks := registry.SinksFor(group)
	req.Len(sinks, 1)
	message := domain.Message{ID: uuid.New(), GroupID: group, Sender: "Alice", Body: "hi", CreatedAt: time.Now().UTC()}
	req.NoError(sinks[0].Consume(context.Background(), event.MessageCreated{Message: message}))

	// Then the client reads the wire frame with the expected name and payload
	var frame struct {
		Event   string         `json:"event"`
		Payload domain.Message `json:"payload"`
	}
	req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
	req.NoError(conn.ReadJSON(&frame))
	req.Equal(event.ReceiveMessage, frame.Event)
	req.Equal(message.ID, frame.Payload.ID)
	req.Equal("hi", frame.Payload.Body)
}

func TestClient_Leave_Stops_Membership(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conn := dialTestClient(t, registry)
	group := uuid.New()

	req.NoError(conn.WriteJSON(map[string]any{"action": "join", "groupId": group}))
	req.Eventually(func() bool {
		return len(registry.MembersOf(group)) == 1
	}, time.Second, 10*time.Millisecond)

	req.NoError(conn.WriteJSON(map[string]any{"action": "leave", "groupId": group}))
	req.Eventually(func() bool {
		return len(registry.MembersOf(group)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestClient_Disconnect_Removes_All_Subscriptions(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	conn := dialTestClient(t, registry)
	groupA := uuid.New()
	groupB := uuid.New()

	req.NoError(conn.WriteJSON(map[string]any{"action": "join", "groupId": groupA}))
	req.NoError(conn.WriteJSON(map[string]any{"action": "join", "groupId": groupB}))
	req.Eventually(func() bool {
		return len(registry.MembersOf(groupA)) == 1 && len(registry.MembersOf(groupB)) == 1
	}, time.Second, 10*time.Millisecond)

	// When the socket dies, the transport reports the connection closed
	req.NoError(conn.Close())
	req.Eventually(func() bool {
		return len(registry.MembersOf(groupA)) == 0 && len(registry.MembersOf(groupB)) == 0
	}, time.Second, 10*time.Millisecond)
}
