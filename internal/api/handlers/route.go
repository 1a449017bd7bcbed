package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
)

// RouteHandler serves the static pickup-to-dropoff route summary. Distance
// is the same great-circle approximation the ETA calculator uses; no road
// network is consulted.
type RouteHandler struct {
	Deliveries ports.DeliveryRepository
}

// Route serves GET /deliveries/{id}/route.
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	deliveryID := r.PathValue("id")

	delivery, err := h.Deliveries.GetDelivery(r.Context(), deliveryID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("delivery_id", deliveryID).Msg("delivery lookup failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	distance := services.HaversineKm(delivery.Pickup, delivery.Destination)
	duration := services.ETAForDistance(distance, services.DefaultSpeedKmh).Minutes

	writeJSON(w, r, http.StatusOK, dto.RouteResponse{
		DeliveryID: deliveryID,
		Distance:   distance,
		Duration:   duration,
		Waypoints: []dto.WaypointResponse{
			{Lat: delivery.Pickup.Lat, Lng: delivery.Pickup.Lon, Type: "pickup", Address: delivery.PickupAddress},
			{Lat: delivery.Destination.Lat, Lng: delivery.Destination.Lon, Type: "dropoff", Address: delivery.DeliveryAddress},
		},
	})
}
