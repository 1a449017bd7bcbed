package ports

import (
	"context"

	"delivery-tracking-service/internal/domain"
)

// Port: the durable, append-only GPS history for deliveries.
type LocationRepository interface {
	// Append a new sample row. Existing rows are never overwritten.
	AppendSample(ctx context.Context, sample domain.LocationSample) error

	// Return up to limit samples for a delivery, newest first.
	ListSamples(ctx context.Context, deliveryID string, limit int) ([]domain.LocationSample, error)

	// Return the most recently recorded sample for a delivery.
	// Returns ErrNotFound when no sample has ever been written.
	LatestSample(ctx context.Context, deliveryID string) (*domain.LocationSample, error)
}
