package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
)

// Default TTLs: the live position expires after an hour of driver silence,
// the static delivery projection after a day, the driver reverse lookup
// alongside the position.
const (
	DefaultLocationTTL   = time.Hour
	DefaultInfoTTL       = 24 * time.Hour
	DefaultDriverConnTTL = time.Hour
)

// Redis-backed implementation of the TrackingCache port. Values are JSON
// blobs under per-delivery keys, so concurrent updates for different
// deliveries never contend on a shared entry.
type RedisTrackingCache struct {
	Client *redis.Client

	LocationTTL   time.Duration
	InfoTTL       time.Duration
	DriverConnTTL time.Duration
}

func NewRedisTrackingCache(client *redis.Client) *RedisTrackingCache {
	return &RedisTrackingCache{
		Client:        client,
		LocationTTL:   DefaultLocationTTL,
		InfoTTL:       DefaultInfoTTL,
		DriverConnTTL: DefaultDriverConnTTL,
	}
}

func locationKey(deliveryID string) string { return "delivery:location:" + deliveryID }
func infoKey(deliveryID string) string     { return "delivery:info:" + deliveryID }
func driverConnKey(driverID string) string { return "driver:socket:" + driverID }

// SetCurrentLocation overwrites the live position entry and resets its TTL.
// Last write wins; no comparison against the previous entry is made.
func (c *RedisTrackingCache) SetCurrentLocation(ctx context.Context, sample domain.LocationSample) error {
	if c.Client == nil {
		return errors.New("tracking cache: client is nil")
	}

	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("set current location: marshal sample: %w", err)
	}

	if err := c.Client.Set(ctx, locationKey(sample.DeliveryID), payload, c.LocationTTL).Err(); err != nil {
		return fmt.Errorf("set current location: redis set %q: %w", locationKey(sample.DeliveryID), err)
	}
	return nil
}

func (c *RedisTrackingCache) GetCurrentLocation(ctx context.Context, deliveryID string) (*domain.LocationSample, error) {
	if c.Client == nil {
		return nil, errors.New("tracking cache: client is nil")
	}

	raw, err := c.Client.Get(ctx, locationKey(deliveryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get current location: redis get %q: %w", locationKey(deliveryID), err)
	}

	var sample domain.LocationSample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return nil, fmt.Errorf("get current location: unmarshal sample: %w", err)
	}
	return &sample, nil
}

func (c *RedisTrackingCache) PutDeliveryInfo(ctx context.Context, info domain.DeliveryInfo) error {
	if c.Client == nil {
		return errors.New("tracking cache: client is nil")
	}

	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("put delivery info: marshal info: %w", err)
	}

	if err := c.Client.Set(ctx, infoKey(info.DeliveryID), payload, c.InfoTTL).Err(); err != nil {
		return fmt.Errorf("put delivery info: redis set %q: %w", infoKey(info.DeliveryID), err)
	}
	return nil
}

func (c *RedisTrackingCache) GetDeliveryInfo(ctx context.Context, deliveryID string) (*domain.DeliveryInfo, error) {
	if c.Client == nil {
		return nil, errors.New("tracking cache: client is nil")
	}

	raw, err := c.Client.Get(ctx, infoKey(deliveryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery info: redis get %q: %w", infoKey(deliveryID), err)
	}

	var info domain.DeliveryInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("get delivery info: unmarshal info: %w", err)
	}
	return &info, nil
}

// SetDriverConnection registers (or refreshes) the reverse lookup from a
// driver to the connection carrying their GPS stream.
func (c *RedisTrackingCache) SetDriverConnection(ctx context.Context, driverID, connectionID string) error {
	if c.Client == nil {
		return errors.New("tracking cache: client is nil")
	}
	if driverID == "" || connectionID == "" {
		return errors.New("set driver connection: driverID and connectionID must be non-empty")
	}

	if err := c.Client.Set(ctx, driverConnKey(driverID), connectionID, c.DriverConnTTL).Err(); err != nil {
		return fmt.Errorf("set driver connection: redis set %q: %w", driverConnKey(driverID), err)
	}
	return nil
}

func (c *RedisTrackingCache) GetDriverConnection(ctx context.Context, driverID string) (string, error) {
	if c.Client == nil {
		return "", errors.New("tracking cache: client is nil")
	}

	id, err := c.Client.Get(ctx, driverConnKey(driverID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("get driver connection: redis get %q: %w", driverConnKey(driverID), err)
	}
	return id, nil
}
