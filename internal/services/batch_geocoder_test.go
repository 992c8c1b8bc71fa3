package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
)

// scriptedResolver resolves every village to a fixed point, panicking for the
// villages listed in panics.
type scriptedResolver struct {
	commercial bool
	tier       domain.AccuracyTier
	panics     map[string]bool

	mu        sync.Mutex
	resolved  []string
	fallbacks []string
}

func (s *scriptedResolver) CommercialConfigured() bool { return s.commercial }

func (s *scriptedResolver) Resolve(ctx context.Context, q domain.LocationQuery) domain.GeocodeResult {
	if s.panics[q.Village] {
		panic("provider exploded")
	}
	s.mu.Lock()
	s.resolved = append(s.resolved, q.Village)
	s.mu.Unlock()
	return domain.GeocodeResult{Coords: domain.Coordinates{Lat: 18.5, Lon: 74}, Accuracy: s.tier, Source: domain.ProviderOpen}
}

func (s *scriptedResolver) Fallback(ctx context.Context, q domain.LocationQuery, cause error) domain.GeocodeResult {
	s.mu.Lock()
	s.fallbacks = append(s.fallbacks, q.Village)
	s.mu.Unlock()
	tier := domain.AccuracyFallback
	if cause != nil {
		tier = domain.AccuracyError
	}
	return domain.GeocodeResult{Coords: domain.DefaultRegionCenter, Accuracy: tier, Source: domain.ProviderDefault}
}

func villageGroups(names ...string) []*domain.LocationGroup {
	orders := make([]*domain.Order, 0, len(names))
	for i, n := range names {
		orders = append(orders, &domain.Order{OrderID: i + 1, Village: n, Taluka: "Haveli", District: "Pune", PlantQuantity: 100})
	}
	return domain.GroupOrders(orders)
}

func TestBatchPolicySelection(t *testing.T) {
	assert.Equal(t, CommercialBatchPolicy, NewBatchGeocoder(&scriptedResolver{commercial: true}, nil).Policy())
	assert.Equal(t, OpenBatchPolicy, NewBatchGeocoder(&scriptedResolver{}, nil).Policy())
	assert.Equal(t, 3, CommercialBatchPolicy.Size)
	assert.Equal(t, 1, OpenBatchPolicy.Size)
}

func TestResolveAllReportsProgressPerBatch(t *testing.T) {
	groups := villageGroups("a", "b", "c", "d", "e")
	var seen []int

	b := NewBatchGeocoder(&scriptedResolver{tier: domain.AccuracyHigh}, nil).WithPolicy(BatchPolicy{Size: 2})
	err := b.ResolveAll(context.Background(), groups, nil, ports.ProgressFunc(func(completed, total int) {
		assert.Equal(t, 5, total)
		seen = append(seen, completed)
	}))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 5}, seen)
	for _, g := range groups {
		require.NotNil(t, g.Coords)
		assert.Equal(t, domain.AccuracyHigh, g.Geocode.Accuracy)
	}
}

func TestResolveAllOverridesAreManual(t *testing.T) {
	groups := villageGroups("Wagholi", "Lonikand")
	override := domain.Coordinates{Lat: 18.6, Lon: 73.95}
	r := &scriptedResolver{tier: domain.AccuracyHigh}

	b := NewBatchGeocoder(r, nil).WithPolicy(BatchPolicy{Size: 3})
	require.NoError(t, b.ResolveAll(context.Background(), groups, map[string]domain.Coordinates{groups[0].Key: override}, nil))

	assert.Equal(t, domain.AccuracyManual, groups[0].Geocode.Accuracy)
	assert.Equal(t, override, *groups[0].Coords)
	assert.Equal(t, []string{"Lonikand"}, r.resolved)
}

func TestResolveAllRecoversPanics(t *testing.T) {
	groups := villageGroups("ok", "boom")
	r := &scriptedResolver{tier: domain.AccuracyMedium, panics: map[string]bool{"boom": true}}

	b := NewBatchGeocoder(r, nil).WithPolicy(BatchPolicy{Size: 3})
	require.NoError(t, b.ResolveAll(context.Background(), groups, nil, nil))

	assert.Equal(t, domain.AccuracyMedium, groups[0].Geocode.Accuracy)
	assert.Equal(t, domain.AccuracyError, groups[1].Geocode.Accuracy)
	assert.Equal(t, domain.DefaultRegionCenter, *groups[1].Coords)
	assert.Equal(t, []string{"boom"}, r.fallbacks)
}

func TestResolveAllStopsBetweenBatches(t *testing.T) {
	groups := villageGroups("a", "b", "c", "d")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBatchGeocoder(&scriptedResolver{tier: domain.AccuracyHigh}, nil).WithPolicy(BatchPolicy{Size: 2})
	err := b.ResolveAll(ctx, groups, nil, ports.ProgressFunc(func(completed, total int) {
		cancel()
	}))

	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.NotNil(t, groups[0].Geocode)
	assert.NotNil(t, groups[1].Geocode)
	assert.Nil(t, groups[2].Geocode)
	assert.Nil(t, groups[3].Geocode)
}

func TestResolveAllUsesCache(t *testing.T) {
	cache := newMemoryCache()
	groups := villageGroups("cached", "fresh", "weak")
	cached := domain.GeocodeResult{Coords: domain.Coordinates{Lat: 18.1, Lon: 74.1}, Accuracy: domain.AccuracyHigh, Source: domain.ProviderCommercial}
	cache.data[groups[0].Key] = cached

	r := &scriptedResolver{tier: domain.AccuracyMedium}
	b := NewBatchGeocoder(r, cache).WithPolicy(BatchPolicy{Size: 3})
	require.NoError(t, b.ResolveAll(context.Background(), groups[:2], nil, nil))

	assert.Equal(t, cached, *groups[0].Geocode)
	assert.Equal(t, []string{"fresh"}, r.resolved)
	assert.Contains(t, cache.data, groups[1].Key)

	// Degraded results are never cached.
	low := &scriptedResolver{tier: domain.AccuracyFallback}
	b = NewBatchGeocoder(low, cache).WithPolicy(BatchPolicy{Size: 3})
	require.NoError(t, b.ResolveAll(context.Background(), groups[2:], nil, nil))
	assert.NotContains(t, cache.data, groups[2].Key)
}

type failingCache struct{}

func (failingCache) GetMany(ctx context.Context, keys []string) (map[string]domain.GeocodeResult, error) {
	return nil, fmt.Errorf("cache down")
}

func (failingCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) error {
	return fmt.Errorf("cache down")
}

func TestResolveAllIgnoresCacheFailures(t *testing.T) {
	groups := villageGroups("a")
	b := NewBatchGeocoder(&scriptedResolver{tier: domain.AccuracyHigh}, failingCache{}).WithPolicy(BatchPolicy{Size: 1})
	require.NoError(t, b.ResolveAll(context.Background(), groups, nil, nil))
	assert.NotNil(t, groups[0].Coords)
}

// slowResolver takes a fixed time per resolution and records when each one ran.
type slowResolver struct {
	delay time.Duration

	mu    sync.Mutex
	spans [][2]time.Time
}

func (s *slowResolver) CommercialConfigured() bool { return true }

func (s *slowResolver) Resolve(ctx context.Context, q domain.LocationQuery) domain.GeocodeResult {
	start := time.Now()
	time.Sleep(s.delay)
	s.mu.Lock()
	s.spans = append(s.spans, [2]time.Time{start, time.Now()})
	s.mu.Unlock()
	return domain.GeocodeResult{Coords: domain.Coordinates{Lat: 18.5, Lon: 74}, Accuracy: domain.AccuracyHigh, Source: domain.ProviderCommercial}
}

func (s *slowResolver) Fallback(ctx context.Context, q domain.LocationQuery, cause error) domain.GeocodeResult {
	return domain.GeocodeResult{Coords: domain.DefaultRegionCenter, Accuracy: domain.AccuracyFallback, Source: domain.ProviderDefault}
}

func TestResolveAllPausesBetweenSlowBatches(t *testing.T) {
	const interval = 100 * time.Millisecond
	r := &slowResolver{delay: 150 * time.Millisecond}
	b := NewBatchGeocoder(r, nil).WithPolicy(BatchPolicy{Size: 1, Interval: interval})

	begin := time.Now()
	require.NoError(t, b.ResolveAll(context.Background(), villageGroups("a", "b", "c"), nil, nil))
	elapsed := time.Since(begin)

	require.Len(t, r.spans, 3)
	for i := 1; i < len(r.spans); i++ {
		gap := r.spans[i][0].Sub(r.spans[i-1][1])
		assert.GreaterOrEqual(t, gap, interval, "gap before batch %d", i+1)
	}
	// No pause after the last batch.
	assert.Less(t, elapsed, 3*r.delay+3*interval)
}

func TestResolveAllCancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBatchGeocoder(&scriptedResolver{tier: domain.AccuracyHigh}, nil).
		WithPolicy(BatchPolicy{Size: 1, Interval: time.Hour})
	groups := villageGroups("a", "b")

	done := make(chan error, 1)
	go func() {
		done <- b.ResolveAll(ctx, groups, nil, ports.ProgressFunc(func(completed, total int) {
			cancel()
		}))
	}()

	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("ResolveAll did not stop while pausing")
	}
	assert.NotNil(t, groups[0].Geocode)
	assert.Nil(t, groups[1].Geocode)
}
