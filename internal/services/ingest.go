package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
)

// Shared validator instance; validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// LocationUpdate is the inbound GPS payload from a courier connection.
type LocationUpdate struct {
	DriverID   string     `json:"driverId" validate:"required"`
	DeliveryID string     `json:"deliveryId" validate:"required"`
	Latitude   float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy   *float64   `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Speed      *float64   `json:"speed,omitempty"`
	Heading    *float64   `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// ETAUpdated is the payload of an eta:updated event.
type ETAUpdated struct {
	DeliveryID string     `json:"deliveryId"`
	ETA        ETAPayload `json:"eta"`
}

type ETAPayload struct {
	Minutes  int     `json:"minutes"`
	Distance float64 `json:"distance"`
}

// Ingestor runs the location ingest pipeline: cache write-through, durable
// history append, fan-out, ETA refresh. The steps are intentionally not
// atomic; each failure is independent and only validation aborts the
// pipeline. Live availability is prioritized over strict durability.
type Ingestor struct {
	cache      ports.TrackingCache
	history    ports.LocationRepository
	deliveries ports.DeliveryRepository
	publisher  ports.Publisher
	metrics    metrics.Sink
	log        zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewIngestor(
	cache ports.TrackingCache,
	history ports.LocationRepository,
	deliveries ports.DeliveryRepository,
	publisher ports.Publisher,
	sink metrics.Sink,
	logger zerolog.Logger,
) *Ingestor {
	return &Ingestor{
		cache:      cache,
		history:    history,
		deliveries: deliveries,
		publisher:  publisher,
		metrics:    sink,
		log:        logger,
		now:        time.Now,
	}
}

// IngestLocation processes one GPS sample. On success it returns the stored
// sample (with assigned id and resolved timestamp). Validation failures
// reject synchronously with no state mutation and no broadcast; every other
// stage failure is logged and counted but does not stop the pipeline.
func (i *Ingestor) IngestLocation(ctx context.Context, update LocationUpdate) (*domain.LocationSample, error) {
	if err := validate.Struct(update); err != nil {
		i.metrics.LocationRejected()
		return nil, fmt.Errorf("ingest location: validate: %w", err)
	}

	ts := i.now().UTC()
	if update.Timestamp != nil {
		ts = update.Timestamp.UTC()
	}

	sample := domain.LocationSample{
		ID:         uuid.NewString(),
		DeliveryID: update.DeliveryID,
		DriverID:   update.DriverID,
		Latitude:   update.Latitude,
		Longitude:  update.Longitude,
		Accuracy:   update.Accuracy,
		Speed:      update.Speed,
		Heading:    update.Heading,
		Timestamp:  ts,
	}

	// Step 1: write-through to the live cache (last-write-wins, TTL reset).
	if err := i.cache.SetCurrentLocation(ctx, sample); err != nil {
		i.log.Warn().Err(err).Str("delivery_id", sample.DeliveryID).
			Msg("current location cache write failed")
	}

	// Step 2: append to durable history. Never blocks the live view.
	if err := i.history.AppendSample(ctx, sample); err != nil {
		i.metrics.HistoryWriteFailure()
		i.log.Warn().Err(err).Str("delivery_id", sample.DeliveryID).
			Msg("location history append failed")
	}

	// Step 3: fan out the fresh position.
	i.publisher.Publish(ports.DeliveryTopic(sample.DeliveryID), ports.EventLocationUpdated, sample)

	// Step 4: refresh the ETA when a destination is resolvable.
	if dest, ok := i.resolveDestination(ctx, sample.DeliveryID); ok {
		speed := 0.0
		if sample.Speed != nil {
			speed = *sample.Speed
		}
		eta := EstimateETA(sample.Coordinates(), dest, speed)

		i.publisher.Publish(ports.DeliveryTopic(sample.DeliveryID), ports.EventETAUpdated, ETAUpdated{
			DeliveryID: sample.DeliveryID,
			ETA:        ETAPayload{Minutes: eta.Minutes, Distance: eta.DistanceKm},
		})
		i.metrics.ETAComputed()
	}

	i.metrics.LocationIngested()
	return &sample, nil
}

// resolveDestination finds the delivery destination for ETA computation,
// cache first with a repository fallback that repopulates the info cache.
// A delivery unknown to both layers simply yields no ETA.
func (i *Ingestor) resolveDestination(ctx context.Context, deliveryID string) (domain.Coordinates, bool) {
	info, err := i.cache.GetDeliveryInfo(ctx, deliveryID)
	if err == nil {
		i.metrics.CacheHit(metrics.CacheKindInfo)
		return info.Destination, true
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		i.log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("delivery info cache read failed")
	} else {
		i.metrics.CacheMiss(metrics.CacheKindInfo)
	}

	delivery, err := i.deliveries.GetDelivery(ctx, deliveryID)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			i.log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("delivery lookup failed")
		}
		return domain.Coordinates{}, false
	}

	fresh := domain.DeliveryInfo{
		DeliveryID:  delivery.ID,
		OrderID:     delivery.OrderID,
		CustomerID:  delivery.CustomerID,
		Pickup:      delivery.Pickup,
		Destination: delivery.Destination,
	}
	if err := i.cache.PutDeliveryInfo(ctx, fresh); err != nil {
		i.log.Warn().Err(err).Str("delivery_id", deliveryID).Msg("delivery info cache write failed")
	}

	return fresh.Destination, true
}
