package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/api/handlers"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
)

// RouterDeps is everything the HTTP surface needs. Handlers stay unaware of
// concrete adapters; the websocket and metrics endpoints are mounted as
// opaque handlers built by the composition root.
type RouterDeps struct {
	Cache      ports.TrackingCache
	History    ports.LocationRepository
	Deliveries ports.DeliveryRepository
	Metrics    metrics.Sink

	Realtime       http.Handler
	MetricsHandler http.Handler

	HistoryLimitMax int
	Logger          zerolog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	tracking := &handlers.TrackingHandler{
		Cache:           deps.Cache,
		History:         deps.History,
		Deliveries:      deps.Deliveries,
		Metrics:         deps.Metrics,
		HistoryLimitMax: deps.HistoryLimitMax,
	}
	route := &handlers.RouteHandler{Deliveries: deps.Deliveries}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /deliveries/{id}/route", route.Route)
	mux.HandleFunc("GET /tracking/{id}/location", tracking.Location)
	mux.HandleFunc("GET /tracking/{id}/history", tracking.HistoryList)
	mux.HandleFunc("GET /tracking/{id}/eta", tracking.ETA)

	if deps.Realtime != nil {
		mux.Handle("/ws", deps.Realtime)
	}
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	return loggingMiddleware(deps.Logger, mux)
}
