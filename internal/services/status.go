package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
)

// StatusChanged is the payload of a delivery:statusChanged event.
type StatusChanged struct {
	DeliveryID string    `json:"deliveryId"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusService is the single entry point for delivery lifecycle changes.
// Both the websocket channel and REST callers converge here, so the audit
// log and the broadcast can never diverge. Transitions are checked against
// the lifecycle graph and rejected with a typed error on violation.
type StatusService struct {
	deliveries ports.DeliveryRepository
	publisher  ports.Publisher
	metrics    metrics.Sink
	log        zerolog.Logger

	now func() time.Time
}

func NewStatusService(
	deliveries ports.DeliveryRepository,
	publisher ports.Publisher,
	sink metrics.Sink,
	logger zerolog.Logger,
) *StatusService {
	return &StatusService{
		deliveries: deliveries,
		publisher:  publisher,
		metrics:    sink,
		log:        logger,
		now:        time.Now,
	}
}

// AssignDriver attaches a driver to a delivery and moves it to assigned.
func (s *StatusService) AssignDriver(ctx context.Context, deliveryID, driverID string) error {
	if deliveryID == "" || driverID == "" {
		return fmt.Errorf("assign driver: deliveryID and driverID must be non-empty")
	}

	delivery, err := s.deliveries.GetDelivery(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("assign driver: get delivery %s: %w", deliveryID, err)
	}

	if !delivery.Status.CanTransition(domain.StatusAssigned) {
		s.metrics.TransitionRejected()
		return &domain.InvalidTransitionError{
			DeliveryID: deliveryID,
			From:       delivery.Status,
			To:         domain.StatusAssigned,
		}
	}

	if err := s.deliveries.AssignDriver(ctx, deliveryID, driverID); err != nil {
		return fmt.Errorf("assign driver: persist delivery %s: %w", deliveryID, err)
	}

	s.finishTransition(ctx, deliveryID, domain.StatusAssigned, "driver "+driverID+" assigned")
	return nil
}

// UpdateStatus applies a lifecycle transition. The status string is checked
// against the recognized set and the transition against the lifecycle graph;
// on acceptance the delivery record is updated, a StatusHistoryEntry is
// appended unconditionally, and delivery:statusChanged is fanned out.
func (s *StatusService) UpdateStatus(ctx context.Context, deliveryID, status, notes string) error {
	if deliveryID == "" {
		return fmt.Errorf("update status: deliveryID must be non-empty")
	}

	next := domain.Status(status)
	if !next.Known() {
		s.metrics.TransitionRejected()
		return &domain.UnknownStatusError{Status: status}
	}

	delivery, err := s.deliveries.GetDelivery(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("update status: get delivery %s: %w", deliveryID, err)
	}

	if !delivery.Status.CanTransition(next) {
		s.metrics.TransitionRejected()
		return &domain.InvalidTransitionError{
			DeliveryID: deliveryID,
			From:       delivery.Status,
			To:         next,
		}
	}

	if err := s.deliveries.SetStatus(ctx, deliveryID, next); err != nil {
		return fmt.Errorf("update status: persist delivery %s: %w", deliveryID, err)
	}

	s.finishTransition(ctx, deliveryID, next, notes)
	return nil
}

// finishTransition appends the audit row and broadcasts the change. The
// audit append is best-effort after the record update has already been
// accepted; its failure is logged and counted, not rolled back.
func (s *StatusService) finishTransition(ctx context.Context, deliveryID string, status domain.Status, notes string) {
	entry := domain.StatusHistoryEntry{
		ID:         uuid.NewString(),
		DeliveryID: deliveryID,
		Status:     status,
		Notes:      notes,
		Timestamp:  s.now().UTC(),
	}
	if err := s.deliveries.AppendStatusHistory(ctx, entry); err != nil {
		s.metrics.HistoryWriteFailure()
		s.log.Warn().Err(err).Str("delivery_id", deliveryID).Str("status", string(status)).
			Msg("status history append failed")
	}

	s.publisher.Publish(ports.DeliveryTopic(deliveryID), ports.EventStatusChanged, StatusChanged{
		DeliveryID: deliveryID,
		Status:     string(status),
		Notes:      notes,
		Timestamp:  entry.Timestamp,
	})
	s.metrics.StatusTransition(string(status))

	s.log.Info().Str("delivery_id", deliveryID).Str("status", string(status)).
		Msg("delivery status changed")
}
