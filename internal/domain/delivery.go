package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a delivery.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// allowedTransitions is the full lifecycle graph. A status missing from the
// map (or mapped to an empty list) is terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusFailed, StatusCancelled},
	StatusDelivered: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// Known reports whether s is one of the recognized status values.
func (s Status) Known() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func (from Status) CanTransition(to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports a lifecycle transition rejected by the graph.
type InvalidTransitionError struct {
	DeliveryID string
	From       Status
	To         Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("delivery %s: invalid status transition %s -> %s", e.DeliveryID, e.From, e.To)
}

// UnknownStatusError reports a status value outside the recognized set.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown delivery status %q", e.Status)
}

// Delivery is one tracked shipment. The tracking core only ever mutates
// Status and DriverID; everything else is owned by the CRUD layer.
type Delivery struct {
	ID              string
	OrderID         string
	CustomerID      string
	DriverID        *string
	Status          Status
	Priority        string
	PickupAddress   string
	Pickup          Coordinates
	DeliveryAddress string
	Destination     Coordinates
	ScheduledAt     *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusHistoryEntry is one row of the append-only status audit trail.
// Entries are written unconditionally on every accepted transition and are
// never updated or deleted.
type StatusHistoryEntry struct {
	ID         string
	DeliveryID string
	Status     Status
	Notes      string
	Timestamp  time.Time
}
