package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
)

// Postgres-backed implementation of the DeliveryRepository port. Only the
// columns the tracking core touches are written here; full CRUD lives with
// the admin layer.
type PostgresDeliveryRepository struct{ DB *sql.DB }

func NewPostgresDeliveryRepository(db *sql.DB) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{DB: db}
}

func (r *PostgresDeliveryRepository) GetDelivery(ctx context.Context, deliveryID string) (_ *domain.Delivery, err error) {
	defer obs.Time(ctx, "deliveries.GetDelivery")(&err)

	if r.DB == nil {
		return nil, errors.New("delivery repository: DB is nil")
	}

	query := `
	SELECT id, order_id, customer_id, driver_id, status, priority,
	       pickup_address, pickup_lat, pickup_lng,
	       delivery_address, delivery_lat, delivery_lng,
	       scheduled_at, notes, created_at, updated_at
	FROM deliveries
	WHERE id = $1;
	`
	var d domain.Delivery
	var status string
	err = r.DB.QueryRowContext(ctx, query, deliveryID).Scan(
		&d.ID, &d.OrderID, &d.CustomerID, &d.DriverID, &status, &d.Priority,
		&d.PickupAddress, &d.Pickup.Lat, &d.Pickup.Lon,
		&d.DeliveryAddress, &d.Destination.Lat, &d.Destination.Lon,
		&d.ScheduledAt, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: query deliveries: %w", err)
	}
	d.Status = domain.Status(status)

	return &d, nil
}

func (r *PostgresDeliveryRepository) SetStatus(ctx context.Context, deliveryID string, status domain.Status) (err error) {
	defer obs.Time(ctx, "deliveries.SetStatus")(&err)

	if r.DB == nil {
		return errors.New("delivery repository: DB is nil")
	}

	query := `
	UPDATE deliveries
	SET status = $2, updated_at = NOW()
	WHERE id = $1;
	`
	res, err := r.DB.ExecContext(ctx, query, deliveryID, string(status))
	if err != nil {
		return fmt.Errorf("set status: update deliveries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}

	return nil
}

// AssignDriver sets the driver and moves the delivery to assigned in one
// statement, so a concurrent reader never sees a driver on an unassigned
// delivery.
func (r *PostgresDeliveryRepository) AssignDriver(ctx context.Context, deliveryID, driverID string) (err error) {
	defer obs.Time(ctx, "deliveries.AssignDriver")(&err)

	if r.DB == nil {
		return errors.New("delivery repository: DB is nil")
	}

	query := `
	UPDATE deliveries
	SET driver_id = $2, status = 'assigned', updated_at = NOW()
	WHERE id = $1;
	`
	res, err := r.DB.ExecContext(ctx, query, deliveryID, driverID)
	if err != nil {
		return fmt.Errorf("assign driver: update deliveries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}

	return nil
}

func (r *PostgresDeliveryRepository) AppendStatusHistory(ctx context.Context, entry domain.StatusHistoryEntry) (err error) {
	defer obs.Time(ctx, "deliveries.AppendStatusHistory")(&err)

	if r.DB == nil {
		return errors.New("delivery repository: DB is nil")
	}

	query := `
	INSERT INTO delivery_status_history (id, delivery_id, status, notes, created_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	_, err = r.DB.ExecContext(ctx, query,
		entry.ID, entry.DeliveryID, string(entry.Status), entry.Notes, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append status history: insert row: %w", err)
	}

	return nil
}

func (r *PostgresDeliveryRepository) ListStatusHistory(ctx context.Context, deliveryID string) (_ []domain.StatusHistoryEntry, err error) {
	defer obs.Time(ctx, "deliveries.ListStatusHistory")(&err)

	if r.DB == nil {
		return nil, errors.New("delivery repository: DB is nil")
	}

	query := `
	SELECT id, delivery_id, status, notes, created_at
	FROM delivery_status_history
	WHERE delivery_id = $1
	ORDER BY created_at ASC;
	`
	rows, err := r.DB.QueryContext(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("list status history: query rows: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.StatusHistoryEntry, 0, 8)
	for rows.Next() {
		var e domain.StatusHistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.DeliveryID, &status, &e.Notes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("list status history: scan row: %w", err)
		}
		e.Status = domain.Status(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list status history: row iteration: %w", err)
	}

	return entries, nil
}
