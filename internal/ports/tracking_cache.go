package ports

import (
	"context"

	"delivery-tracking-service/internal/domain"
)

// Port: the low-latency projection layer backing the live tracking view.
// Entries expire by TTL; a miss is reported as ErrCacheMiss and never treated
// as an error by callers. The cache is deliberately not kept consistent with
// the durable history (last-write-wins, best effort).
type TrackingCache interface {
	// Overwrite the current location for a delivery and reset its TTL.
	SetCurrentLocation(ctx context.Context, sample domain.LocationSample) error

	// Return the cached current location, or ErrCacheMiss.
	GetCurrentLocation(ctx context.Context, deliveryID string) (*domain.LocationSample, error)

	// Store the static delivery projection used for ETA destination lookup.
	PutDeliveryInfo(ctx context.Context, info domain.DeliveryInfo) error

	// Return the cached delivery projection, or ErrCacheMiss.
	GetDeliveryInfo(ctx context.Context, deliveryID string) (*domain.DeliveryInfo, error)

	// Register (or refresh) the reverse lookup from a driver to the
	// connection currently carrying their GPS stream.
	SetDriverConnection(ctx context.Context, driverID, connectionID string) error

	// Return the connection id registered for a driver, or ErrCacheMiss.
	GetDriverConnection(ctx context.Context, driverID string) (string, error)
}
