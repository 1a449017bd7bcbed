package realtime

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
)

// LocationIngestor is the slice of the ingest pipeline the session needs.
type LocationIngestor interface {
	IngestLocation(ctx context.Context, update services.LocationUpdate) (*domain.LocationSample, error)
}

// StatusUpdater is the slice of the state machine the session needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, deliveryID, status, notes string) error
}

// Session dispatches inbound connection events to the tracking services.
// One Session serves all connections; per-connection state lives on Client.
type Session struct {
	hub      *Hub
	cache    ports.TrackingCache
	ingestor LocationIngestor
	statuses StatusUpdater
	metrics  metrics.Sink
	log      zerolog.Logger
}

func NewSession(
	hub *Hub,
	cache ports.TrackingCache,
	ingestor LocationIngestor,
	statuses StatusUpdater,
	sink metrics.Sink,
	logger zerolog.Logger,
) *Session {
	return &Session{
		hub:      hub,
		cache:    cache,
		ingestor: ingestor,
		statuses: statuses,
		metrics:  sink,
		log:      logger,
	}
}

func (s *Session) handle(c *Client, event inboundEvent) {
	ctx := context.Background()

	switch event.Type {
	case EventDriverJoin:
		s.handleDriverJoin(ctx, c, event.Data)
	case EventCustomerSubscribe:
		s.handleCustomerSubscribe(ctx, c, event.Data)
	case EventLocationUpdate:
		s.handleLocationUpdate(ctx, c, event.Data)
	case EventDeliveryStatus:
		s.handleDeliveryStatus(ctx, c, event.Data)
	default:
		s.reject(c, "unrecognized event type: "+event.Type)
	}
}

// handleDriverJoin puts the connection into the delivery and driver rooms
// and registers the driver -> connection reverse lookup (refreshable TTL).
// Joining an unknown delivery is accepted silently.
func (s *Session) handleDriverJoin(ctx context.Context, c *Client, data json.RawMessage) {
	var req DriverJoin
	if err := json.Unmarshal(data, &req); err != nil || req.DriverID == "" || req.DeliveryID == "" {
		s.reject(c, "driver:join requires driverId and deliveryId")
		return
	}

	s.hub.Subscribe(ports.DeliveryTopic(req.DeliveryID), c)
	s.hub.Subscribe(ports.DriverTopic(req.DriverID), c)

	if err := s.cache.SetDriverConnection(ctx, req.DriverID, c.ID()); err != nil {
		s.log.Warn().Err(err).Str("driver_id", req.DriverID).
			Msg("driver connection registration failed")
	}

	s.log.Info().Str("driver_id", req.DriverID).Str("delivery_id", req.DeliveryID).
		Msg("driver joined delivery room")
}

// handleCustomerSubscribe joins the delivery room and immediately replays
// the cached current location to this one connection, so a late subscriber
// is not left blank until the next GPS tick. A cache miss (expired TTL or
// unknown delivery) sends nothing.
func (s *Session) handleCustomerSubscribe(ctx context.Context, c *Client, data json.RawMessage) {
	var req CustomerSubscribe
	if err := json.Unmarshal(data, &req); err != nil || req.DeliveryID == "" {
		s.reject(c, "customer:subscribe requires deliveryId")
		return
	}

	s.hub.Subscribe(ports.DeliveryTopic(req.DeliveryID), c)

	current, err := s.cache.GetCurrentLocation(ctx, req.DeliveryID)
	switch {
	case err == nil:
		s.metrics.CacheHit(metrics.CacheKindLocation)
		c.trySend(Event{Type: ports.EventLocationCurrent, Data: current})
	case errors.Is(err, ports.ErrCacheMiss):
		s.metrics.CacheMiss(metrics.CacheKindLocation)
	default:
		s.log.Warn().Err(err).Str("delivery_id", req.DeliveryID).
			Msg("current location cache read failed")
	}

	s.log.Info().Str("delivery_id", req.DeliveryID).Str("customer_id", req.CustomerID).
		Msg("customer subscribed to delivery room")
}

func (s *Session) handleLocationUpdate(ctx context.Context, c *Client, data json.RawMessage) {
	var update services.LocationUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		s.reject(c, "malformed location:update payload")
		return
	}

	if _, err := s.ingestor.IngestLocation(ctx, update); err != nil {
		s.reject(c, "location update rejected: "+err.Error())
	}
}

func (s *Session) handleDeliveryStatus(ctx context.Context, c *Client, data json.RawMessage) {
	var req StatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.reject(c, "malformed delivery:status payload")
		return
	}

	if err := s.statuses.UpdateStatus(ctx, req.DeliveryID, req.Status, req.Notes); err != nil {
		s.reject(c, "status update rejected: "+err.Error())
	}
}

func (s *Session) reject(c *Client, message string) {
	c.trySend(Event{Type: EventError, Data: ErrorPayload{Message: message}})
}
