package ports

import (
	"context"

	"delivery-tracking-service/internal/domain"
)

// Port: a boundary for the slice of the deliveries table the tracking core
// touches. Creation, listing and filtering belong to the CRUD layer.
type DeliveryRepository interface {
	// Retrieve a delivery by id. Returns ErrNotFound when absent.
	GetDelivery(ctx context.Context, deliveryID string) (*domain.Delivery, error)

	// Set the delivery status. The caller is responsible for transition
	// legality; the repository only persists.
	SetStatus(ctx context.Context, deliveryID string, status domain.Status) error

	// Set the driver and move the delivery to assigned in one statement.
	AssignDriver(ctx context.Context, deliveryID, driverID string) error

	// Append one row to the append-only status audit trail.
	AppendStatusHistory(ctx context.Context, entry domain.StatusHistoryEntry) error

	// Return the audit trail for a delivery, oldest first.
	ListStatusHistory(ctx context.Context, deliveryID string) ([]domain.StatusHistoryEntry, error)
}
