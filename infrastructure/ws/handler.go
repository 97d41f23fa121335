package ws

import (
	"log/slog"
	"net/http"

	"text-hub/contract"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO restrict origins once the deployment domain is known
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket connections and hands
// them to the registry as subscribers.
type Handler struct {
	log        *slog.Logger
	registry   contract.IRegistry
	bufferSize int
}

func NewHandler(log *slog.Logger, registry contract.IRegistry, bufferSize int) *Handler {
	return &Handler{log: log, registry: registry, bufferSize: bufferSize}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}
	client := NewClient(h.log, conn, h.registry, h.bufferSize)
	h.log.Info("client connected", "connection_id", client.ID())

	go client.WritePump()
	go client.ReadPump()
}
