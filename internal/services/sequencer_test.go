package services

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"agri-route-service/internal/adapters/routing"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/geo"
	"agri-route-service/internal/ports"
)

func routeOf(groups ...*domain.LocationGroup) domain.Route {
	r := domain.Route{}
	for _, g := range groups {
		r.Stops = append(r.Stops, g)
		r.TotalPlants += g.TotalPlants()
	}
	return r
}

func stopKeys(r domain.Route) []string {
	out := make([]string, 0, len(r.Stops))
	for _, s := range r.Stops {
		out = append(out, s.Key)
	}
	return out
}

func closedPathKm(r domain.Route, depot domain.Coordinates) float64 {
	pts := []domain.Coordinates{depot}
	pts = append(pts, r.Coords()...)
	pts = append(pts, depot)
	return geo.PathKm(pts)
}

func assertPermutation(t *testing.T, got domain.Route, want domain.Route) {
	t.Helper()
	a, b := stopKeys(got), stopKeys(want)
	sort.Strings(a)
	sort.Strings(b)
	if len(a) != len(b) {
		t.Fatalf("got %d stops, want %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("stops %v are not a permutation of %v", a, b)
		}
	}
}

func TestNearestNeighborRoute(t *testing.T) {
	hub := domain.Coordinates{Lat: 18.52, Lon: 73.85}
	route := routeOf(
		locatedGroup("B", 18.60, 73.85, 100),
		locatedGroup("C", 18.55, 73.87, 100),
		locatedGroup("A", 18.53, 73.85, 100),
	)

	got := NearestNeighborRoute(route, hub)

	keys := stopKeys(got)
	if keys[0] != "A" || keys[1] != "C" || keys[2] != "B" {
		t.Fatalf("order = %v, want [A C B]", keys)
	}
	if got.Sequencing != domain.SequencingHeuristic {
		t.Fatalf("sequencing = %q, want heuristic", got.Sequencing)
	}
	if want := closedPathKm(got, hub); math.Abs(got.TotalDistanceKm-want) > 1e-9 {
		t.Fatalf("distance = %f, want %f (including return leg)", got.TotalDistanceKm, want)
	}
}

func TestNearestNeighborTieBreaksByKey(t *testing.T) {
	route := routeOf(
		locatedGroup("b-dup", 18.60, 73.90, 100),
		locatedGroup("a-dup", 18.60, 73.90, 100),
	)

	got := NearestNeighborRoute(route, depot)

	if keys := stopKeys(got); keys[0] != "a-dup" || keys[1] != "b-dup" {
		t.Fatalf("order = %v, want [a-dup b-dup]", keys)
	}
}

func TestSequenceUsesOptimizer(t *testing.T) {
	route := routeOf(
		locatedGroup("east", 18.60, 74.20, 100),
		locatedGroup("west", 18.60, 73.70, 100),
		locatedGroup("mid", 18.70, 73.95, 100),
	)
	opt := routing.NewMockOptimizer(23)

	got := NewSequencer(opt, 1).Sequence(context.Background(), route, depot)

	if got.Sequencing != domain.SequencingRoad {
		t.Fatalf("sequencing = %q, want road", got.Sequencing)
	}
	if keys := stopKeys(got); keys[0] != "west" || keys[1] != "mid" || keys[2] != "east" {
		t.Fatalf("order = %v, want [west mid east]", keys)
	}
	if want := closedPathKm(got, depot); math.Abs(got.TotalDistanceKm-want) > 1e-6 {
		t.Fatalf("distance = %f, want %f", got.TotalDistanceKm, want)
	}
	if len(opt.Calls()) != 1 {
		t.Fatalf("optimizer calls = %d, want 1", len(opt.Calls()))
	}
}

func TestSequenceChunksLongRoutes(t *testing.T) {
	route := routeOf(
		locatedGroup("s1", 18.61, 74.30, 100),
		locatedGroup("s2", 18.62, 73.60, 100),
		locatedGroup("s3", 18.63, 74.10, 100),
		locatedGroup("s4", 18.64, 73.80, 100),
		locatedGroup("s5", 18.65, 74.00, 100),
	)
	opt := routing.NewMockOptimizer(2)

	got := NewSequencer(opt, 1).Sequence(context.Background(), route, depot)

	calls := opt.Calls()
	if len(calls) != 3 {
		t.Fatalf("optimizer calls = %d, want 3", len(calls))
	}
	if calls[0].Origin != depot {
		t.Fatalf("first chunk must start at the depot")
	}
	for i, c := range calls {
		if c.Destination != depot {
			t.Fatalf("chunk %d destination = %v, want depot", i, c.Destination)
		}
	}
	// s2 is west of s1, so the first chunk ends at s1; the second chunk starts there.
	if calls[1].Origin != *route.Stops[0].Coords {
		t.Fatalf("second chunk origin = %v, want end of first chunk", calls[1].Origin)
	}

	if keys := stopKeys(got); keys[0] != "s2" || keys[1] != "s1" || keys[2] != "s4" || keys[3] != "s3" || keys[4] != "s5" {
		t.Fatalf("order = %v, want [s2 s1 s4 s3 s5]", keys)
	}
	if want := closedPathKm(got, depot); math.Abs(got.TotalDistanceKm-want) > 1e-6 {
		t.Fatalf("distance = %f, want %f (intermediate returns excluded)", got.TotalDistanceKm, want)
	}
	assertPermutation(t, got, route)
}

func TestSequenceFallsBackWhenOptimizerFails(t *testing.T) {
	route := routeOf(
		locatedGroup("x", 18.60, 74.20, 100),
		locatedGroup("y", 18.55, 73.90, 100),
	)
	opt := routing.NewMockOptimizer(23)
	opt.Fail = true

	got := NewSequencer(opt, 1).Sequence(context.Background(), route, depot)

	if got.Sequencing != domain.SequencingHeuristic {
		t.Fatalf("sequencing = %q, want heuristic", got.Sequencing)
	}
	if keys := stopKeys(got); keys[0] != "y" {
		t.Fatalf("order = %v, want nearest stop y first", keys)
	}
	assertPermutation(t, got, route)
}

type badOrderOptimizer struct{}

func (badOrderOptimizer) Configured() bool  { return true }
func (badOrderOptimizer) MaxWaypoints() int { return 10 }
func (badOrderOptimizer) Optimize(ctx context.Context, o, d domain.Coordinates, wps []domain.Coordinates) (*ports.OptimizedPath, error) {
	return &ports.OptimizedPath{Order: make([]int, len(wps))}, nil
}

// hangingOptimizer blocks until its context ends, like a provider that never answers.
type hangingOptimizer struct{}

func (hangingOptimizer) Configured() bool  { return true }
func (hangingOptimizer) MaxWaypoints() int { return 10 }
func (hangingOptimizer) Optimize(ctx context.Context, o, d domain.Coordinates, wps []domain.Coordinates) (*ports.OptimizedPath, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSequenceBoundsOptimizerCall(t *testing.T) {
	route := routeOf(
		locatedGroup("x", 18.60, 74.20, 100),
		locatedGroup("y", 18.55, 73.90, 100),
	)

	start := time.Now()
	got := NewSequencer(hangingOptimizer{}, 1).
		WithCallTimeout(50*time.Millisecond).
		Sequence(context.Background(), route, depot)

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("sequence took %v, want the call cut off near 50ms", elapsed)
	}
	if got.Sequencing != domain.SequencingHeuristic {
		t.Fatalf("sequencing = %q, want heuristic", got.Sequencing)
	}
	assertPermutation(t, got, route)
}

func TestSequenceRejectsInvalidPermutation(t *testing.T) {
	route := routeOf(
		locatedGroup("x", 18.60, 74.20, 100),
		locatedGroup("y", 18.55, 73.90, 100),
	)

	got := NewSequencer(badOrderOptimizer{}, 1).Sequence(context.Background(), route, depot)

	if got.Sequencing != domain.SequencingHeuristic {
		t.Fatalf("sequencing = %q, want heuristic", got.Sequencing)
	}
	assertPermutation(t, got, route)
}

func TestSequenceAllKeepsRouteOrder(t *testing.T) {
	routes := []domain.Route{
		routeOf(locatedGroup("r1", 18.60, 74.20, 100)),
		routeOf(),
		routeOf(locatedGroup("r3a", 18.55, 73.90, 100), locatedGroup("r3b", 18.58, 73.95, 100)),
	}

	got := NewSequencer(nil, 4).SequenceAll(context.Background(), routes, depot)

	if len(got) != 3 {
		t.Fatalf("got %d routes, want 3", len(got))
	}
	if got[0].Stops[0].Key != "r1" || len(got[1].Stops) != 0 || len(got[2].Stops) != 2 {
		t.Fatalf("routes reordered: %v %v %v", stopKeys(got[0]), stopKeys(got[1]), stopKeys(got[2]))
	}
	if got[1].Sequencing != domain.SequencingNone || got[1].TotalDistanceKm != 0 {
		t.Fatalf("empty route = %+v", got[1])
	}
	if got[0].Sequencing != domain.SequencingHeuristic {
		t.Fatalf("nil optimizer should sequence heuristically")
	}
}
