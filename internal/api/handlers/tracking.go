package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
)

// DefaultHistoryLimit applies when the history endpoint is called without
// an explicit ?limit=.
const DefaultHistoryLimit = 100

// TrackingHandler exposes the read-only REST surface over the live cache
// and the durable history.
type TrackingHandler struct {
	Cache      ports.TrackingCache
	History    ports.LocationRepository
	Deliveries ports.DeliveryRepository
	Metrics    metrics.Sink

	// HistoryLimitMax caps ?limit=; zero means 500.
	HistoryLimitMax int
}

// Location serves GET /tracking/{id}/location: cache first, history
// fallback when the live entry has expired.
func (h *TrackingHandler) Location(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.PathValue("id")
	ctx := r.Context()

	sample, err := h.Cache.GetCurrentLocation(ctx, deliveryID)
	if err == nil {
		h.Metrics.CacheHit(metrics.CacheKindLocation)
		writeJSON(w, r, http.StatusOK, toLocationResponse(*sample, "cache"))
		return
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("delivery_id", deliveryID).Msg("location cache read failed")
	} else {
		h.Metrics.CacheMiss(metrics.CacheKindLocation)
	}

	sample, err = h.History.LatestSample(ctx, deliveryID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "no location recorded for delivery")
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("delivery_id", deliveryID).Msg("latest sample lookup failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toLocationResponse(*sample, "database"))
}

// History serves GET /tracking/{id}/history?limit=: descending samples,
// limit clamped to the configured maximum.
func (h *TrackingHandler) HistoryList(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.PathValue("id")

	max := h.HistoryLimitMax
	if max <= 0 {
		max = 500
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > max {
		limit = max
	}

	samples, err := h.History.ListSamples(r.Context(), deliveryID, limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("delivery_id", deliveryID).Msg("history query failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.HistoryResponse{
		DeliveryID: deliveryID,
		Count:      len(samples),
		Locations:  make([]dto.LocationResponse, 0, len(samples)),
	}
	for _, s := range samples {
		res.Locations = append(res.Locations, toLocationResponse(s, "database"))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// ETA serves GET /tracking/{id}/eta from the freshest reachable position
// and the delivery destination.
func (h *TrackingHandler) ETA(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.PathValue("id")
	ctx := r.Context()

	sample, err := h.Cache.GetCurrentLocation(ctx, deliveryID)
	if errors.Is(err, ports.ErrCacheMiss) {
		sample, err = h.History.LatestSample(ctx, deliveryID)
	}
	if errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrCacheMiss) {
		writeError(w, r, http.StatusNotFound, "no location recorded for delivery")
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("delivery_id", deliveryID).Msg("position lookup failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	delivery, err := h.Deliveries.GetDelivery(ctx, deliveryID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("delivery_id", deliveryID).Msg("delivery lookup failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	speed := 0.0
	if sample.Speed != nil {
		speed = *sample.Speed
	}
	eta := services.EstimateETA(sample.Coordinates(), delivery.Destination, speed)

	if speed <= 0 {
		speed = services.DefaultSpeedKmh
	}
	writeJSON(w, r, http.StatusOK, dto.ETAResponse{
		DeliveryID:       deliveryID,
		DistanceKm:       eta.DistanceKm,
		EtaMinutes:       eta.Minutes,
		EstimatedArrival: time.Now().UTC().Add(time.Duration(eta.Minutes) * time.Minute),
		CurrentSpeed:     speed,
	})
}

func toLocationResponse(s domain.LocationSample, source string) dto.LocationResponse {
	return dto.LocationResponse{
		DeliveryID: s.DeliveryID,
		DriverID:   s.DriverID,
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Accuracy:   s.Accuracy,
		Speed:      s.Speed,
		Heading:    s.Heading,
		Timestamp:  s.Timestamp,
		Source:     source,
	}
}
