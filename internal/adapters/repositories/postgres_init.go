package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Initialize the postgres schema for the tracking core. Idempotent; safe to
// run on every startup.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDeliveriesQuery := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id               TEXT PRIMARY KEY,
		order_id         TEXT NOT NULL,
		customer_id      TEXT NOT NULL,
		driver_id        TEXT,
		status           TEXT NOT NULL DEFAULT 'pending',
		priority         TEXT NOT NULL DEFAULT 'normal',
		pickup_address   TEXT NOT NULL DEFAULT '',
		pickup_lat       DOUBLE PRECISION NOT NULL,
		pickup_lng       DOUBLE PRECISION NOT NULL,
		delivery_address TEXT NOT NULL DEFAULT '',
		delivery_lat     DOUBLE PRECISION NOT NULL,
		delivery_lng     DOUBLE PRECISION NOT NULL,
		scheduled_at     TIMESTAMPTZ,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS delivery_locations (
		id          TEXT PRIMARY KEY,
		delivery_id TEXT NOT NULL,
		driver_id   TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		accuracy    DOUBLE PRECISION,
		speed       DOUBLE PRECISION,
		heading     DOUBLE PRECISION,
		created_at  TIMESTAMPTZ NOT NULL
	);
	`

	createStatusHistoryQuery := `
	CREATE TABLE IF NOT EXISTS delivery_status_history (
		id          TEXT PRIMARY KEY,
		delivery_id TEXT NOT NULL,
		status      TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	);
	`

	createLocationsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_delivery_locations_delivery_created
	ON delivery_locations(delivery_id, created_at DESC);
	`

	createStatusHistoryIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_delivery_status_history_delivery_created
	ON delivery_status_history(delivery_id, created_at);
	`

	statements := []string{
		createDeliveriesQuery,
		createLocationsQuery,
		createStatusHistoryQuery,
		createLocationsIndexQuery,
		createStatusHistoryIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type DeliverySeed struct {
	ID              string     `json:"id"`
	OrderID         string     `json:"order_id"`
	CustomerID      string     `json:"customer_id"`
	Priority        string     `json:"priority"`
	PickupAddress   string     `json:"pickup_address"`
	PickupLat       float64    `json:"pickup_lat"`
	PickupLng       float64    `json:"pickup_lng"`
	DeliveryAddress string     `json:"delivery_address"`
	DeliveryLat     float64    `json:"delivery_lat"`
	DeliveryLng     float64    `json:"delivery_lng"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
}

// Populate the deliveries table with demo data from a JSON file. Existing
// rows win: seeding never overwrites live state.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed deliveries: read %q: %w", jsonPath, err)
	}

	var data []DeliverySeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed deliveries: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed deliveries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
	INSERT INTO deliveries (
		id, order_id, customer_id, priority,
		pickup_address, pickup_lat, pickup_lng,
		delivery_address, delivery_lat, delivery_lng,
		scheduled_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed deliveries: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range data {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			id = uuid.NewString()
		}
		priority := d.Priority
		if priority == "" {
			priority = "normal"
		}

		if _, err := stmt.Exec(
			id, d.OrderID, d.CustomerID, priority,
			d.PickupAddress, d.PickupLat, d.PickupLng,
			d.DeliveryAddress, d.DeliveryLat, d.DeliveryLng,
			d.ScheduledAt,
		); err != nil {
			return fmt.Errorf("seed deliveries: insert id=%q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed deliveries: commit tx: %w", err)
	}

	return nil
}
