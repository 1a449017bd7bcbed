package realtime

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/metrics"
)

func newTestHub() *Hub {
	return NewHub(metrics.Noop{}, zerolog.Nop())
}

// newTestClient builds a connection-less client for hub tests.
func newTestClient(id string, buffer int) *Client {
	return &Client{
		id:   id,
		log:  zerolog.Nop(),
		send: make(chan Event, buffer),
	}
}

// drain reads every event currently buffered for the client.
func drain(c *Client) []Event {
	var out []Event
	for {
		select {
		case e, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHubFanOutReachesAllSubscribers(t *testing.T) {
	hub := newTestHub()
	a := newTestClient("a", 8)
	b := newTestClient("b", 8)

	hub.Subscribe("delivery:d1", a)
	hub.Subscribe("delivery:d1", b)

	hub.Publish("delivery:d1", "location:updated", "payload")

	for _, c := range []*Client{a, b} {
		events := drain(c)
		if len(events) != 1 {
			t.Fatalf("client %s received %d events, want 1", c.ID(), len(events))
		}
		if events[0].Type != "location:updated" {
			t.Errorf("client %s received event %q", c.ID(), events[0].Type)
		}
	}
}

func TestHubSubscribersObserveIdenticalOrder(t *testing.T) {
	hub := newTestHub()
	a := newTestClient("a", 64)
	b := newTestClient("b", 64)

	hub.Subscribe("delivery:d1", a)
	hub.Subscribe("delivery:d1", b)

	for i := 0; i < 50; i++ {
		hub.Publish("delivery:d1", "location:updated", i)
	}

	eventsA := drain(a)
	eventsB := drain(b)
	if len(eventsA) != 50 || len(eventsB) != 50 {
		t.Fatalf("received %d/%d events, want 50/50", len(eventsA), len(eventsB))
	}
	for i := range eventsA {
		if eventsA[i].Data != eventsB[i].Data {
			t.Fatalf("order diverged at %d: %v vs %v", i, eventsA[i].Data, eventsB[i].Data)
		}
	}
}

func TestHubPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := newTestHub()
	// must not panic or create rooms
	hub.Publish("delivery:ghost", "location:updated", nil)
	if n := hub.RoomSize("delivery:ghost"); n != 0 {
		t.Errorf("room size = %d, want 0", n)
	}
}

func TestHubTopicsAreIndependent(t *testing.T) {
	hub := newTestHub()
	a := newTestClient("a", 8)
	b := newTestClient("b", 8)

	hub.Subscribe("delivery:d1", a)
	hub.Subscribe("delivery:d2", b)

	hub.Publish("delivery:d1", "location:updated", nil)

	if got := len(drain(a)); got != 1 {
		t.Errorf("subscriber of d1 received %d events, want 1", got)
	}
	if got := len(drain(b)); got != 0 {
		t.Errorf("subscriber of d2 received %d events, want 0", got)
	}
}

func TestHubRemoveDetachesFromAllRooms(t *testing.T) {
	hub := newTestHub()
	c := newTestClient("a", 8)

	hub.Subscribe("delivery:d1", c)
	hub.Subscribe("driver:dr1", c)

	hub.Remove(c)

	if n := hub.RoomSize("delivery:d1"); n != 0 {
		t.Errorf("delivery room size = %d, want 0", n)
	}
	if n := hub.RoomSize("driver:dr1"); n != 0 {
		t.Errorf("driver room size = %d, want 0", n)
	}

	hub.Publish("delivery:d1", "location:updated", nil)
	if got := len(drain(c)); got != 0 {
		t.Errorf("removed client received %d events", got)
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := newTestHub()
	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 8)

	hub.Subscribe("delivery:d1", slow)
	hub.Subscribe("delivery:d1", fast)

	// second publish overflows the slow client's buffer
	hub.Publish("delivery:d1", "location:updated", 1)
	hub.Publish("delivery:d1", "location:updated", 2)

	if n := hub.RoomSize("delivery:d1"); n != 1 {
		t.Errorf("room size after drop = %d, want 1", n)
	}
	if !slow.closed {
		t.Error("slow client not closed")
	}
	if fast.closed {
		t.Error("fast client closed")
	}
	if got := len(drain(fast)); got != 2 {
		t.Errorf("fast client received %d events, want 2", got)
	}
}

func TestHubShutdownClosesAllClients(t *testing.T) {
	hub := newTestHub()
	clients := make([]*Client, 0, 5)
	for i := 0; i < 5; i++ {
		c := newTestClient(fmt.Sprintf("c%d", i), 8)
		hub.Subscribe("delivery:d1", c)
		clients = append(clients, c)
	}

	hub.Shutdown()

	for _, c := range clients {
		if !c.closed {
			t.Errorf("client %s not closed by shutdown", c.ID())
		}
	}
	if n := hub.RoomSize("delivery:d1"); n != 0 {
		t.Errorf("room size after shutdown = %d, want 0", n)
	}
}
