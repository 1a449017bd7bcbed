package services

import (
	"context"
	"errors"
	"sync"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
)

// In-memory test doubles for the tracking ports. Error injection is done by
// setting the fail* fields.

type publishedEvent struct {
	topic     string
	eventType string
	payload   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(topic, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, eventType: eventType, payload: payload})
}

func (p *fakePublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeCache struct {
	current     map[string]domain.LocationSample
	info        map[string]domain.DeliveryInfo
	driverConns map[string]string

	failSetCurrent bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		current:     map[string]domain.LocationSample{},
		info:        map[string]domain.DeliveryInfo{},
		driverConns: map[string]string{},
	}
}

func (c *fakeCache) SetCurrentLocation(_ context.Context, sample domain.LocationSample) error {
	if c.failSetCurrent {
		return errors.New("cache unavailable")
	}
	c.current[sample.DeliveryID] = sample
	return nil
}

func (c *fakeCache) GetCurrentLocation(_ context.Context, deliveryID string) (*domain.LocationSample, error) {
	s, ok := c.current[deliveryID]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return &s, nil
}

func (c *fakeCache) PutDeliveryInfo(_ context.Context, info domain.DeliveryInfo) error {
	c.info[info.DeliveryID] = info
	return nil
}

func (c *fakeCache) GetDeliveryInfo(_ context.Context, deliveryID string) (*domain.DeliveryInfo, error) {
	i, ok := c.info[deliveryID]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return &i, nil
}

func (c *fakeCache) SetDriverConnection(_ context.Context, driverID, connectionID string) error {
	c.driverConns[driverID] = connectionID
	return nil
}

func (c *fakeCache) GetDriverConnection(_ context.Context, driverID string) (string, error) {
	id, ok := c.driverConns[driverID]
	if !ok {
		return "", ports.ErrCacheMiss
	}
	return id, nil
}

type fakeHistory struct {
	samples    []domain.LocationSample
	failAppend bool
}

func (h *fakeHistory) AppendSample(_ context.Context, sample domain.LocationSample) error {
	if h.failAppend {
		return errors.New("history store unavailable")
	}
	h.samples = append(h.samples, sample)
	return nil
}

func (h *fakeHistory) ListSamples(_ context.Context, deliveryID string, limit int) ([]domain.LocationSample, error) {
	var out []domain.LocationSample
	for i := len(h.samples) - 1; i >= 0 && len(out) < limit; i-- {
		if h.samples[i].DeliveryID == deliveryID {
			out = append(out, h.samples[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) LatestSample(_ context.Context, deliveryID string) (*domain.LocationSample, error) {
	for i := len(h.samples) - 1; i >= 0; i-- {
		if h.samples[i].DeliveryID == deliveryID {
			s := h.samples[i]
			return &s, nil
		}
	}
	return nil, ports.ErrNotFound
}

type fakeDeliveries struct {
	deliveries map[string]*domain.Delivery
	history    []domain.StatusHistoryEntry
}

func newFakeDeliveries(deliveries ...*domain.Delivery) *fakeDeliveries {
	f := &fakeDeliveries{deliveries: map[string]*domain.Delivery{}}
	for _, d := range deliveries {
		f.deliveries[d.ID] = d
	}
	return f
}

func (f *fakeDeliveries) GetDelivery(_ context.Context, deliveryID string) (*domain.Delivery, error) {
	d, ok := f.deliveries[deliveryID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (f *fakeDeliveries) SetStatus(_ context.Context, deliveryID string, status domain.Status) error {
	d, ok := f.deliveries[deliveryID]
	if !ok {
		return ports.ErrNotFound
	}
	d.Status = status
	return nil
}

func (f *fakeDeliveries) AssignDriver(_ context.Context, deliveryID, driverID string) error {
	d, ok := f.deliveries[deliveryID]
	if !ok {
		return ports.ErrNotFound
	}
	d.DriverID = &driverID
	d.Status = domain.StatusAssigned
	return nil
}

func (f *fakeDeliveries) AppendStatusHistory(_ context.Context, entry domain.StatusHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeDeliveries) ListStatusHistory(_ context.Context, deliveryID string) ([]domain.StatusHistoryEntry, error) {
	var out []domain.StatusHistoryEntry
	for _, e := range f.history {
		if e.DeliveryID == deliveryID {
			out = append(out, e)
		}
	}
	return out, nil
}
