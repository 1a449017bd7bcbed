package services

import (
	"math"

	"delivery-tracking-service/internal/domain"
)

// Mean Earth radius in kilometers, as used by the haversine formula.
const earthRadiusKm = 6371.0

// DefaultSpeedKmh substitutes for a missing or unusable observed speed so an
// ETA never divides by zero. Roughly urban courier pace.
const DefaultSpeedKmh = 30.0

// ETA is a distance/time estimate toward a delivery destination.
type ETA struct {
	DistanceKm float64
	Minutes    int
}

// HaversineKm returns the great-circle distance between two points in
// kilometers. This is an explicit approximation: no road network is
// consulted, so real driving distance is always at least this value.
func HaversineKm(a, b domain.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateETA computes the arrival estimate from the current position to the
// destination at the observed speed in km/h.
func EstimateETA(current, destination domain.Coordinates, speedKmh float64) ETA {
	return ETAForDistance(HaversineKm(current, destination), speedKmh)
}

// ETAForDistance converts a known distance into an estimate. A speed that is
// zero, negative, NaN or infinite falls back to DefaultSpeedKmh.
func ETAForDistance(distanceKm, speedKmh float64) ETA {
	if speedKmh <= 0 || math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) {
		speedKmh = DefaultSpeedKmh
	}

	return ETA{
		DistanceKm: distanceKm,
		Minutes:    int(math.Round(distanceKm / speedKmh * 60)),
	}
}
