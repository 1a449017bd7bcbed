package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget. Registration errors are
// logged but never propagated: a collector that fails to register still
// works, it just is not scraped.
type PrometheusSink struct {
	locationsIngestedTotal prometheus.Counter
	locationsRejectedTotal prometheus.Counter
	historyWriteErrors     prometheus.Counter
	etaComputedTotal       prometheus.Counter

	statusTransitionsTotal *prometheus.CounterVec
	transitionsRejected    prometheus.Counter

	eventsBroadcastTotal *prometheus.CounterVec
	subscribersDropped   prometheus.Counter
	connectedClients     prometheus.Gauge

	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec
}

// NewPrometheusSink creates a sink registered against reg. Passing a private
// prometheus.NewRegistry() keeps tests hermetic; passing
// prometheus.DefaultRegisterer gives the usual process-wide registry.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		locationsIngestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_locations_ingested_total",
			Help: "Total number of GPS samples accepted by the ingest pipeline.",
		}),
		locationsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_locations_rejected_total",
			Help: "Total number of GPS samples rejected by validation.",
		}),
		historyWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_history_write_errors_total",
			Help: "Durable history appends that failed (live view unaffected).",
		}),
		etaComputedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_eta_computed_total",
			Help: "Total number of ETA estimates published.",
		}),
		statusTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_status_transitions_total",
			Help: "Accepted delivery status transitions by target status.",
		}, []string{"status"}),
		transitionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_status_transitions_rejected_total",
			Help: "Status transitions rejected by the lifecycle graph.",
		}),
		eventsBroadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_events_broadcast_total",
			Help: "Events fanned out to topic subscribers, by event type.",
		}, []string{"event"}),
		subscribersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_subscribers_dropped_total",
			Help: "Subscribers disconnected because their send buffer was full.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracking_connected_clients",
			Help: "Currently connected websocket clients.",
		}),
		cacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_cache_hits_total",
			Help: "Cache hits by key kind.",
		}, []string{"kind"}),
		cacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_cache_misses_total",
			Help: "Cache misses by key kind.",
		}, []string{"kind"}),
	}

	collectors := []prometheus.Collector{
		s.locationsIngestedTotal, s.locationsRejectedTotal, s.historyWriteErrors,
		s.etaComputedTotal, s.statusTransitionsTotal, s.transitionsRejected,
		s.eventsBroadcastTotal, s.subscribersDropped, s.connectedClients,
		s.cacheHitsTotal, s.cacheMissesTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Printf("metrics: failed to register collector: %v", err)
		}
	}

	return s
}

func (s *PrometheusSink) LocationIngested()    { s.locationsIngestedTotal.Inc() }
func (s *PrometheusSink) LocationRejected()    { s.locationsRejectedTotal.Inc() }
func (s *PrometheusSink) HistoryWriteFailure() { s.historyWriteErrors.Inc() }
func (s *PrometheusSink) ETAComputed()         { s.etaComputedTotal.Inc() }

func (s *PrometheusSink) StatusTransition(status string) {
	s.statusTransitionsTotal.WithLabelValues(status).Inc()
}
func (s *PrometheusSink) TransitionRejected() { s.transitionsRejected.Inc() }

func (s *PrometheusSink) EventBroadcast(eventType string) {
	s.eventsBroadcastTotal.WithLabelValues(eventType).Inc()
}
func (s *PrometheusSink) SubscriberDropped()  { s.subscribersDropped.Inc() }
func (s *PrometheusSink) ClientConnected()    { s.connectedClients.Inc() }
func (s *PrometheusSink) ClientDisconnected() { s.connectedClients.Dec() }

func (s *PrometheusSink) CacheHit(kind string)  { s.cacheHitsTotal.WithLabelValues(kind).Inc() }
func (s *PrometheusSink) CacheMiss(kind string) { s.cacheMissesTotal.WithLabelValues(kind).Inc() }
