package routing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/geo"
	"agri-route-service/internal/ports"
)

// MockCall records one Optimize request.
type MockCall struct {
	Origin, Destination domain.Coordinates
	Waypoints           []domain.Coordinates
}

// MockOptimizer orders waypoints west to east and reports haversine legs. It is used
// for offline runs and tests; Fail makes every call return ErrSequencingUnavailable.
type MockOptimizer struct {
	Limit int
	Fail  bool

	mu    sync.Mutex
	calls []MockCall
}

func NewMockOptimizer(limit int) *MockOptimizer {
	return &MockOptimizer{Limit: limit}
}

func (m *MockOptimizer) Configured() bool { return true }

func (m *MockOptimizer) MaxWaypoints() int { return m.Limit }

func (m *MockOptimizer) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func (m *MockOptimizer) Optimize(
	ctx context.Context,
	origin, destination domain.Coordinates,
	waypoints []domain.Coordinates,
) (*ports.OptimizedPath, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Origin: origin, Destination: destination, Waypoints: append([]domain.Coordinates(nil), waypoints...)})
	m.mu.Unlock()

	if m.Fail {
		return nil, fmt.Errorf("mock optimizer: %w", ports.ErrSequencingUnavailable)
	}
	if m.Limit > 0 && len(waypoints) > m.Limit {
		return nil, fmt.Errorf("mock optimizer: %d waypoints exceeds limit %d", len(waypoints), m.Limit)
	}

	order := make([]int, len(waypoints))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return waypoints[order[a]].Lon < waypoints[order[b]].Lon
	})

	path := make([]domain.Coordinates, 0, len(waypoints)+2)
	path = append(path, origin)
	for _, i := range order {
		path = append(path, waypoints[i])
	}
	path = append(path, destination)

	legs := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		legs = append(legs, geo.DistanceKm(path[i-1], path[i])*1000)
	}

	return &ports.OptimizedPath{Order: order, LegMeters: legs, Polyline: path}, nil
}
