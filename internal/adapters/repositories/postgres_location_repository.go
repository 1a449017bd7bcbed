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

// Postgres-backed implementation of the LocationRepository port. The table
// is append-only: rows are inserted on every ingest event and never updated
// or deleted, forming the durable audit trail of courier movement.
type PostgresLocationRepository struct{ DB *sql.DB }

func NewPostgresLocationRepository(db *sql.DB) *PostgresLocationRepository {
	return &PostgresLocationRepository{DB: db}
}

func (r *PostgresLocationRepository) AppendSample(ctx context.Context, sample domain.LocationSample) (err error) {
	defer obs.Time(ctx, "locations.AppendSample")(&err)

	if r.DB == nil {
		return errors.New("location repository: DB is nil")
	}

	query := `
	INSERT INTO delivery_locations (
		id, delivery_id, driver_id, latitude, longitude, accuracy, speed, heading, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = r.DB.ExecContext(ctx, query,
		sample.ID, sample.DeliveryID, sample.DriverID,
		sample.Latitude, sample.Longitude,
		sample.Accuracy, sample.Speed, sample.Heading,
		sample.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append sample: insert delivery_locations row: %w", err)
	}

	return nil
}

// ListSamples returns up to limit samples for a delivery, newest first.
func (r *PostgresLocationRepository) ListSamples(ctx context.Context, deliveryID string, limit int) (_ []domain.LocationSample, err error) {
	defer obs.Time(ctx, "locations.ListSamples")(&err)

	if r.DB == nil {
		return nil, errors.New("location repository: DB is nil")
	}
	if limit <= 0 {
		return []domain.LocationSample{}, nil
	}

	query := `
	SELECT id, delivery_id, driver_id, latitude, longitude, accuracy, speed, heading, created_at
	FROM delivery_locations
	WHERE delivery_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2;
	`
	rows, err := r.DB.QueryContext(ctx, query, deliveryID, limit)
	if err != nil {
		return nil, fmt.Errorf("list samples: query delivery_locations: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.LocationSample, 0, limit)
	for rows.Next() {
		var s domain.LocationSample
		if err := rows.Scan(
			&s.ID, &s.DeliveryID, &s.DriverID,
			&s.Latitude, &s.Longitude,
			&s.Accuracy, &s.Speed, &s.Heading,
			&s.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("list samples: scan row: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list samples: row iteration: %w", err)
	}

	return samples, nil
}

func (r *PostgresLocationRepository) LatestSample(ctx context.Context, deliveryID string) (_ *domain.LocationSample, err error) {
	defer obs.Time(ctx, "locations.LatestSample")(&err)

	if r.DB == nil {
		return nil, errors.New("location repository: DB is nil")
	}

	query := `
	SELECT id, delivery_id, driver_id, latitude, longitude, accuracy, speed, heading, created_at
	FROM delivery_locations
	WHERE delivery_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT 1;
	`
	var s domain.LocationSample
	err = r.DB.QueryRowContext(ctx, query, deliveryID).Scan(
		&s.ID, &s.DeliveryID, &s.DriverID,
		&s.Latitude, &s.Longitude,
		&s.Accuracy, &s.Speed, &s.Heading,
		&s.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest sample: query delivery_locations: %w", err)
	}

	return &s, nil
}
