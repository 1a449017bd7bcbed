package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/metrics"
)

// Handler upgrades HTTP requests to websocket connections and hands them to
// the hub. Clients join no rooms until they send driver:join or
// customer:subscribe.
type Handler struct {
	hub      *Hub
	session  *Session
	metrics  metrics.Sink
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, session *Session, sink metrics.Sink, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		session: session,
		metrics: sink,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy is enforced upstream; driver apps connect
			// from non-browser contexts without an Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, h.session, h.log)
	client.onClose = h.metrics.ClientDisconnected
	h.metrics.ClientConnected()

	h.log.Info().Str("client_id", client.ID()).Str("remote", r.RemoteAddr).
		Msg("websocket client connected")

	client.Start()
}
