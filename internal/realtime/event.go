package realtime

import "github.com/goccy/go-json"

// Client-to-server event types.
const (
	EventDriverJoin        = "driver:join"
	EventCustomerSubscribe = "customer:subscribe"
	EventLocationUpdate    = "location:update"
	EventDeliveryStatus    = "delivery:status"

	// EventError is sent back to the submitting connection when its event
	// was rejected. Rejections never mutate state or broadcast.
	EventError = "error"
)

// Event is the wire envelope for both directions of the websocket channel.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// inboundEvent defers payload decoding until the type is known.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DriverJoin is the payload of a driver:join event.
type DriverJoin struct {
	DriverID   string `json:"driverId"`
	DeliveryID string `json:"deliveryId"`
}

// CustomerSubscribe is the payload of a customer:subscribe event.
type CustomerSubscribe struct {
	DeliveryID string `json:"deliveryId"`
	CustomerID string `json:"customerId"`
}

// StatusRequest is the payload of a delivery:status event.
type StatusRequest struct {
	DeliveryID string `json:"deliveryId"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

// ErrorPayload carries the rejection reason of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
