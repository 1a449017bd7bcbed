package realtime

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// sendBuffer absorbs bursts; a subscriber that stays this far behind
	// the fan-out is dropped by the hub.
	sendBuffer = 256
)

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	session *Session
	log     zerolog.Logger

	// onClose, when set, runs exactly once after the client is closed.
	onClose func()

	mu     sync.Mutex
	closed bool
	send   chan Event
}

func NewClient(hub *Hub, conn *websocket.Conn, session *Session, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		hub:     hub,
		conn:    conn,
		session: session,
		log:     logger.With().Str("client_id", id).Logger(),
		send:    make(chan Event, sendBuffer),
	}
}

// ID returns the connection identifier, also used as the driver reverse
// lookup value in the cache.
func (c *Client) ID() string { return c.id }

// trySend enqueues without blocking. Returns false when the client is closed
// or its buffer is full; the caller decides what to do with a stuck client.
func (c *Client) trySend(event Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once and closes the connection.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.onClose != nil {
		c.onClose()
	}
}

// readPump pumps inbound events from the connection into the session.
// On any read error the client leaves all rooms; disconnect never mutates
// delivery state.
func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.trySend(Event{Type: EventError, Data: ErrorPayload{Message: "malformed event"}})
			continue
		}

		c.session.handle(c, event)
	}
}

// writePump pumps events from the send channel to the connection and keeps
// the connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				c.log.Error().Err(err).Str("event", event.Type).Msg("event marshal failed")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
