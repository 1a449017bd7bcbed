package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/metrics"
)

// Hub maps logical topics (delivery/driver rooms) to the clients subscribed
// to them and fans published events out to every member. It implements
// ports.Publisher.
//
// Publish holds the hub lock while enqueueing to every member, so all
// subscribers of one topic observe every event in identical order. That
// guarantee is per process only; cross-process ordering would need an
// external pub/sub backbone.
type Hub struct {
	mu sync.Mutex
	// rooms and memberships are kept mutually consistent under mu.
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}

	metrics metrics.Sink
	log     zerolog.Logger
}

func NewHub(sink metrics.Sink, logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
		metrics:     sink,
		log:         logger,
	}
}

// Subscribe adds a client to a topic. Subscribing to a topic nobody has
// published to yet is the normal case (lazy materialization): no delivery
// needs to exist for its room to be joined.
func (h *Hub) Subscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[topic]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[topic] = room
	}
	room[c] = struct{}{}

	member, ok := h.memberships[c]
	if !ok {
		member = make(map[string]struct{})
		h.memberships[c] = member
	}
	member[topic] = struct{}{}

	h.log.Debug().Str("topic", topic).Str("client_id", c.ID()).
		Int("room_size", len(room)).Msg("client subscribed")
}

// Publish delivers one event to every current subscriber of the topic.
// A topic with no subscribers is a no-op. Clients whose send buffer is full
// are dropped rather than allowed to stall the fan-out.
func (h *Hub) Publish(topic, eventType string, payload any) {
	event := Event{Type: eventType, Data: payload}

	h.mu.Lock()
	var stuck []*Client
	for c := range h.rooms[topic] {
		if !c.trySend(event) {
			stuck = append(stuck, c)
		}
	}
	h.mu.Unlock()

	h.metrics.EventBroadcast(eventType)

	for _, c := range stuck {
		h.metrics.SubscriberDropped()
		h.log.Warn().Str("topic", topic).Str("client_id", c.ID()).
			Msg("dropping slow subscriber")
		h.Remove(c)
		c.close()
	}
}

// Remove detaches a client from every topic it joined. It carries no
// delivery-state side effects: status and location are only ever mutated by
// explicit events, never inferred from connectivity loss.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic := range h.memberships[c] {
		delete(h.rooms[topic], c)
		if len(h.rooms[topic]) == 0 {
			delete(h.rooms, topic)
		}
	}
	delete(h.memberships, c)
}

// RoomSize reports the current number of subscribers of a topic.
func (h *Hub) RoomSize(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[topic])
}

// Shutdown closes every connected client. Used on graceful server stop.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.memberships))
	for c := range h.memberships {
		clients = append(clients, c)
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.memberships = make(map[*Client]map[string]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.log.Info().Int("clients_closed", len(clients)).Msg("realtime hub stopped")
}
