package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/ports"
)

func testDelivery(id string) *domain.Delivery {
	return &domain.Delivery{
		ID:          id,
		OrderID:     "order-1",
		CustomerID:  "customer-1",
		Status:      domain.StatusInTransit,
		Pickup:      domain.Coordinates{Lat: 48.8566, Lon: 2.3522},
		Destination: domain.Coordinates{Lat: 45.7640, Lon: 4.8357},
	}
}

func newTestIngestor(cache *fakeCache, history *fakeHistory, deliveries *fakeDeliveries, pub *fakePublisher) *Ingestor {
	return NewIngestor(cache, history, deliveries, pub, metrics.Noop{}, zerolog.Nop())
}

func TestIngestLocationHappyPath(t *testing.T) {
	cache := newFakeCache()
	history := &fakeHistory{}
	deliveries := newFakeDeliveries(testDelivery("d1"))
	pub := &fakePublisher{}

	ing := newTestIngestor(cache, history, deliveries, pub)

	speed := 50.0
	sample, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID:   "driver-1",
		DeliveryID: "d1",
		Latitude:   48.0,
		Longitude:  3.0,
		Speed:      &speed,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.ID == "" {
		t.Error("sample id not assigned")
	}
	if sample.Timestamp.IsZero() {
		t.Error("timestamp not defaulted to server time")
	}

	cached, err := cache.GetCurrentLocation(context.Background(), "d1")
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	if cached.ID != sample.ID {
		t.Errorf("cache holds sample %s, want %s", cached.ID, sample.ID)
	}

	if len(history.samples) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history.samples))
	}

	locEvents := pub.byType(ports.EventLocationUpdated)
	if len(locEvents) != 1 {
		t.Fatalf("location:updated events = %d, want 1", len(locEvents))
	}
	if locEvents[0].topic != "delivery:d1" {
		t.Errorf("published to topic %q, want delivery:d1", locEvents[0].topic)
	}

	etaEvents := pub.byType(ports.EventETAUpdated)
	if len(etaEvents) != 1 {
		t.Fatalf("eta:updated events = %d, want 1", len(etaEvents))
	}
	eta, ok := etaEvents[0].payload.(ETAUpdated)
	if !ok {
		t.Fatalf("eta payload has type %T", etaEvents[0].payload)
	}
	if eta.ETA.Distance <= 0 || eta.ETA.Minutes <= 0 {
		t.Errorf("degenerate eta: %+v", eta.ETA)
	}
}

func TestIngestLocationExplicitTimestampKept(t *testing.T) {
	cache := newFakeCache()
	deliveries := newFakeDeliveries(testDelivery("d1"))
	ing := newTestIngestor(cache, &fakeHistory{}, deliveries, &fakePublisher{})

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sample, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID:   "driver-1",
		DeliveryID: "d1",
		Latitude:   48.0,
		Longitude:  3.0,
		Timestamp:  &ts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sample.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", sample.Timestamp, ts)
	}
}

func TestIngestLocationRejectsBadCoordinates(t *testing.T) {
	cases := []LocationUpdate{
		{DriverID: "dr", DeliveryID: "d1", Latitude: 91, Longitude: 0},
		{DriverID: "dr", DeliveryID: "d1", Latitude: -90.5, Longitude: 0},
		{DriverID: "dr", DeliveryID: "d1", Latitude: 0, Longitude: 181},
		{DriverID: "dr", DeliveryID: "d1", Latitude: 0, Longitude: -180.1},
		{DriverID: "", DeliveryID: "d1", Latitude: 0, Longitude: 0},
		{DriverID: "dr", DeliveryID: "", Latitude: 0, Longitude: 0},
	}

	for _, update := range cases {
		cache := newFakeCache()
		history := &fakeHistory{}
		pub := &fakePublisher{}
		ing := newTestIngestor(cache, history, newFakeDeliveries(), pub)

		if _, err := ing.IngestLocation(context.Background(), update); err == nil {
			t.Errorf("update %+v accepted, want validation error", update)
		}
		// rejected synchronously: no mutation, no broadcast
		if len(cache.current) != 0 || len(history.samples) != 0 || len(pub.events) != 0 {
			t.Errorf("rejected update %+v mutated state", update)
		}
	}
}

func TestIngestLocationDuplicatesStoredIndividually(t *testing.T) {
	cache := newFakeCache()
	history := &fakeHistory{}
	pub := &fakePublisher{}
	ing := newTestIngestor(cache, history, newFakeDeliveries(testDelivery("d1")), pub)

	update := LocationUpdate{DriverID: "driver-1", DeliveryID: "d1", Latitude: 47.5, Longitude: 3.3}

	first, err := ing.IngestLocation(context.Background(), update)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := ing.IngestLocation(context.Background(), update)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	// two independent history rows, each individually broadcast
	if len(history.samples) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history.samples))
	}
	if got := len(pub.byType(ports.EventLocationUpdated)); got != 2 {
		t.Fatalf("location:updated events = %d, want 2", got)
	}

	// the cache reflects only the most recent write
	cached, err := cache.GetCurrentLocation(context.Background(), "d1")
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	if cached.ID == first.ID {
		t.Error("cache still holds the first sample, want last-write-wins")
	}
	if cached.ID != second.ID {
		t.Errorf("cache holds %s, want %s", cached.ID, second.ID)
	}
}

func TestIngestLocationHistoryFailureDoesNotBlockLiveView(t *testing.T) {
	cache := newFakeCache()
	history := &fakeHistory{failAppend: true}
	pub := &fakePublisher{}
	ing := newTestIngestor(cache, history, newFakeDeliveries(testDelivery("d1")), pub)

	_, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID: "driver-1", DeliveryID: "d1", Latitude: 47.5, Longitude: 3.3,
	})
	if err != nil {
		t.Fatalf("history failure must not fail the pipeline: %v", err)
	}

	if _, err := cache.GetCurrentLocation(context.Background(), "d1"); err != nil {
		t.Errorf("cache not updated despite history failure: %v", err)
	}
	if got := len(pub.byType(ports.EventLocationUpdated)); got != 1 {
		t.Errorf("location:updated events = %d, want 1", got)
	}
}

func TestIngestLocationCacheFailureStillPersistsAndBroadcasts(t *testing.T) {
	cache := newFakeCache()
	cache.failSetCurrent = true
	history := &fakeHistory{}
	pub := &fakePublisher{}
	ing := newTestIngestor(cache, history, newFakeDeliveries(testDelivery("d1")), pub)

	_, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID: "driver-1", DeliveryID: "d1", Latitude: 47.5, Longitude: 3.3,
	})
	if err != nil {
		t.Fatalf("cache failure must not fail the pipeline: %v", err)
	}
	if len(history.samples) != 1 {
		t.Errorf("history rows = %d, want 1", len(history.samples))
	}
	if got := len(pub.byType(ports.EventLocationUpdated)); got != 1 {
		t.Errorf("location:updated events = %d, want 1", got)
	}
}

func TestIngestLocationNoETAForUnknownDelivery(t *testing.T) {
	// Location updates for a delivery outside the store are still ingested
	// and broadcast; only the ETA step is skipped.
	cache := newFakeCache()
	pub := &fakePublisher{}
	ing := newTestIngestor(cache, &fakeHistory{}, newFakeDeliveries(), pub)

	_, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID: "driver-1", DeliveryID: "ghost", Latitude: 47.5, Longitude: 3.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(pub.byType(ports.EventLocationUpdated)); got != 1 {
		t.Errorf("location:updated events = %d, want 1", got)
	}
	if got := len(pub.byType(ports.EventETAUpdated)); got != 0 {
		t.Errorf("eta:updated events = %d, want 0", got)
	}
}

func TestIngestLocationRepopulatesInfoCache(t *testing.T) {
	cache := newFakeCache()
	deliveries := newFakeDeliveries(testDelivery("d1"))
	ing := newTestIngestor(cache, &fakeHistory{}, deliveries, &fakePublisher{})

	if _, err := ing.IngestLocation(context.Background(), LocationUpdate{
		DriverID: "driver-1", DeliveryID: "d1", Latitude: 47.5, Longitude: 3.3,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := cache.GetDeliveryInfo(context.Background(), "d1")
	if err != nil {
		t.Fatalf("info cache not repopulated: %v", err)
	}
	if info.Destination != (domain.Coordinates{Lat: 45.7640, Lon: 4.8357}) {
		t.Errorf("cached destination = %+v", info.Destination)
	}
}
