package domain

import "time"

// LocationSample is a single courier GPS fix. Samples are append-only: the
// full ordered sequence per delivery forms the durable tracking history.
// No deduplication or reordering is applied on ingest; consumers needing a
// monotonic trace must sort by Timestamp client-side.
type LocationSample struct {
	ID         string    `json:"id"`
	DeliveryID string    `json:"deliveryId"`
	DriverID   string    `json:"driverId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Coordinates returns the sample position as domain coordinates.
func (s LocationSample) Coordinates() Coordinates {
	return Coordinates{Lat: s.Latitude, Lon: s.Longitude}
}

// DeliveryInfo is the static cache projection used to resolve an ETA
// destination without a database round trip. Populated at delivery creation
// (or lazily on cache miss) and read-only from the tracking core's side.
type DeliveryInfo struct {
	DeliveryID  string      `json:"deliveryId"`
	OrderID     string      `json:"orderId"`
	CustomerID  string      `json:"customerId"`
	Pickup      Coordinates `json:"pickup"`
	Destination Coordinates `json:"destination"`
}
