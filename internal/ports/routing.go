package ports

import (
	"context"
	"errors"

	"agri-route-service/internal/domain"
)

// ErrSequencingUnavailable marks a road optimizer that could not serve a request.
var ErrSequencingUnavailable = errors.New("waypoint optimizer unavailable")

// OptimizedPath is the road optimizer's answer for one origin -> waypoints -> destination request.
type OptimizedPath struct {
	// Permutation of the submitted waypoint indexes, in visiting order.
	Order []int
	// Leg distances in meters: origin->first, ..., last->destination.
	LegMeters []float64
	Polyline  []domain.Coordinates
	Toll      *domain.TollInfo
}

// Contract for an external road routing service that reorders waypoints.
type WaypointOptimizer interface {
	Configured() bool
	// Maximum number of intermediate waypoints accepted per request.
	MaxWaypoints() int
	Optimize(ctx context.Context, origin, destination domain.Coordinates, waypoints []domain.Coordinates) (*OptimizedPath, error)
}
