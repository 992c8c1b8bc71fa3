package services

import (
	"context"
	"fmt"
	"sync"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
)

// stubStrategy returns a canned answer and counts calls.
type stubStrategy struct {
	name       domain.ProviderID
	configured bool
	result     *domain.GeocodeResult
	err        error
	panicMsg   string
	// failFirst makes the first n calls return ErrProviderUnavailable.
	failFirst int

	mu    sync.Mutex
	calls int
}

func (s *stubStrategy) Name() domain.ProviderID { return s.name }
func (s *stubStrategy) Configured() bool        { return s.configured }

func (s *stubStrategy) Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if n <= s.failFirst {
		return nil, fmt.Errorf("stub: %w", ports.ErrProviderUnavailable)
	}
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	return &r, nil
}

func (s *stubStrategy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// tableStrategy places villages from a fixed table.
type tableStrategy struct {
	coords map[string]domain.Coordinates
}

func (t tableStrategy) Name() domain.ProviderID { return domain.ProviderOpen }
func (t tableStrategy) Configured() bool        { return true }

func (t tableStrategy) Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	c, ok := t.coords[q.Village]
	if !ok {
		return nil, fmt.Errorf("table: %q: %w", q.Village, ports.ErrNoAcceptableMatch)
	}
	return &domain.GeocodeResult{
		Coords:   c,
		Accuracy: domain.AccuracyHigh,
		Source:   domain.ProviderOpen,
		Matched:  []domain.ComponentKind{domain.ComponentVillage, domain.ComponentDistrict},
	}, nil
}

// stubSearcher answers searches from a canned candidate list.
type stubSearcher struct {
	configured bool
	byText     map[string][]ports.Candidate
	all        []ports.Candidate
	err        error

	mu      sync.Mutex
	queries []string
}

func (s *stubSearcher) Configured() bool { return s.configured }

func (s *stubSearcher) Search(ctx context.Context, text string) ([]ports.Candidate, error) {
	s.mu.Lock()
	s.queries = append(s.queries, text)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.byText[text]; ok {
		return c, nil
	}
	return s.all, nil
}

type stubDistrict struct {
	coords domain.Coordinates
	err    error
}

func (s stubDistrict) Configured() bool { return true }

func (s stubDistrict) LocateDistrict(ctx context.Context, district, state string) (domain.Coordinates, error) {
	return s.coords, s.err
}

// memoryCache is an in-process GeocodeCache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]domain.GeocodeResult
	puts int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]domain.GeocodeResult)}
}

func (m *memoryCache) GetMany(ctx context.Context, keys []string) (map[string]domain.GeocodeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.GeocodeResult)
	for _, k := range keys {
		if r, ok := m.data[k]; ok {
			out[k] = r
		}
	}
	return out, nil
}

func (m *memoryCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	for k, r := range results {
		m.data[k] = r
	}
	return nil
}

func candidate(lat, lon float64, address string, comps map[domain.ComponentKind]string) ports.Candidate {
	c := ports.Candidate{
		Coords:           domain.Coordinates{Lat: lat, Lon: lon},
		FormattedAddress: address,
		CountryCode:      "IN",
		Components:       make(map[domain.ComponentKind][]string),
	}
	for k, v := range comps {
		c.Components[k] = []string{v}
	}
	return c
}

var nextOrderID = 1000

func locatedGroup(key string, lat, lon float64, plants ...int) *domain.LocationGroup {
	g := &domain.LocationGroup{Key: key, Village: key}
	for _, p := range plants {
		nextOrderID++
		g.Orders = append(g.Orders, &domain.Order{OrderID: nextOrderID, Village: key, PlantQuantity: p})
	}
	g.SetGeocode(domain.GeocodeResult{Coords: domain.Coordinates{Lat: lat, Lon: lon}, Accuracy: domain.AccuracyHigh})
	return g
}
