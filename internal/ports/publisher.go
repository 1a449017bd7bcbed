package ports

// Port: topic fan-out. Publish delivers one event to every current
// subscriber of the topic; subscribers of the same topic observe events in
// identical order. Publishing to a topic with no subscribers is a no-op.
type Publisher interface {
	Publish(topic string, eventType string, payload any)
}

// Server-to-client event types carried by the fan-out layer.
const (
	EventLocationCurrent = "location:current"
	EventLocationUpdated = "location:updated"
	EventETAUpdated      = "eta:updated"
	EventStatusChanged   = "delivery:statusChanged"
)

// DeliveryTopic names the room shared by everyone tracking one delivery.
func DeliveryTopic(deliveryID string) string { return "delivery:" + deliveryID }

// DriverTopic names the room addressing a single driver's connections.
func DriverTopic(driverID string) string { return "driver:" + driverID }
