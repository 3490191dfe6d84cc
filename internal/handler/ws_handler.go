package handler

import (
	"net/http"

	"babylog-sync-server/internal/realtime"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader ws.Upgrader
	log      zerolog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log.With().Str("component", "ws-handler").Logger(),
	}
}

// HandleConnection upgrades the socket and parks the device on the hub.
// Optional query params: device_id, tenant.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = "default"
	}
	tenant := r.URL.Query().Get("tenant")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(uuid.New().String(), deviceID, tenant, conn, h.hub)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
