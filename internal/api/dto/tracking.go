package dto

import "time"

// LocationResponse is the current-position payload of the tracking API.
// Source reports which layer answered: "cache" for the live view, standard
// fallback is the durable history ("database").
type LocationResponse struct {
	DeliveryID string    `json:"delivery_id"`
	DriverID   string    `json:"driver_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
}

type HistoryResponse struct {
	DeliveryID string             `json:"delivery_id"`
	Count      int                `json:"count"`
	Locations  []LocationResponse `json:"locations"`
}

type ETAResponse struct {
	DeliveryID       string    `json:"delivery_id"`
	DistanceKm       float64   `json:"distanceKm"`
	EtaMinutes       int       `json:"etaMinutes"`
	EstimatedArrival time.Time `json:"estimatedArrival"`
	CurrentSpeed     float64   `json:"currentSpeed"`
}

type WaypointResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Type    string  `json:"type"`
	Address string  `json:"address"`
}

type RouteResponse struct {
	DeliveryID string             `json:"delivery_id"`
	Distance   float64            `json:"distance"`
	Duration   int                `json:"duration"`
	Waypoints  []WaypointResponse `json:"waypoints"`
}
