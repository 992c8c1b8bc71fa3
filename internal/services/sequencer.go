package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/geo"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

// Sequencer fixes the stop order of routes, preferring a road optimizer and
// falling back to nearest-neighbor on straight-line distance.
type Sequencer struct {
	optimizer   ports.WaypointOptimizer
	concurrency int
	callTimeout time.Duration
}

// DefaultOptimizeTimeout bounds one optimizer call, retries included.
const DefaultOptimizeTimeout = 15 * time.Second

// NewSequencer accepts a nil optimizer, in which case every route is sequenced
// heuristically.
func NewSequencer(optimizer ports.WaypointOptimizer, concurrency int) *Sequencer {
	return &Sequencer{optimizer: optimizer, concurrency: max(concurrency, 1), callTimeout: DefaultOptimizeTimeout}
}

// WithCallTimeout sets the deadline of each optimizer call. Zero or negative disables it.
func (s *Sequencer) WithCallTimeout(d time.Duration) *Sequencer {
	s.callTimeout = d
	return s
}

func (s *Sequencer) optimize(
	ctx context.Context,
	origin, destination domain.Coordinates,
	waypoints []domain.Coordinates,
) (*ports.OptimizedPath, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	return s.optimizer.Optimize(ctx, origin, destination, waypoints)
}

// SequenceAll sequences routes concurrently. Chunks of one route are still
// optimized one after another.
func (s *Sequencer) SequenceAll(ctx context.Context, routes []domain.Route, depot domain.Coordinates) []domain.Route {
	out := make([]domain.Route, len(routes))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, r := range routes {
		g.Go(func() error {
			out[i] = s.Sequence(ctx, r, depot)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Sequence returns route with its stops reordered and distance metadata filled in.
// It never fails: an unavailable optimizer yields a heuristic order instead.
func (s *Sequencer) Sequence(ctx context.Context, route domain.Route, depot domain.Coordinates) domain.Route {
	if len(route.Stops) == 0 {
		route.TotalDistanceKm = 0
		route.Sequencing = domain.SequencingNone
		return route
	}

	if s.optimizer != nil && s.optimizer.Configured() {
		sequenced, err := s.road(ctx, route, depot)
		if err == nil {
			return sequenced
		}
		log.Printf("sequence: stops=%d falling back to heuristic err=%v", len(route.Stops), err)
	}

	return NearestNeighborRoute(route, depot)
}

// road submits the stops to the optimizer in chunks of at most MaxWaypoints.
// Chunk i starts where chunk i-1 ended and every chunk is asked to end at the
// depot; the return leg of all but the last chunk is left out of the distance.
func (s *Sequencer) road(ctx context.Context, route domain.Route, depot domain.Coordinates) (_ domain.Route, err error) {
	defer obs.Time(ctx, "sequence.road")(&err)

	for _, st := range route.Stops {
		if st.Coords == nil {
			return domain.Route{}, fmt.Errorf("stop %q has no coordinate", st.Key)
		}
	}

	n := len(route.Stops)
	limit := s.optimizer.MaxWaypoints()
	if limit < 1 {
		limit = n
	}

	ordered := make([]*domain.LocationGroup, 0, n)
	var (
		meters   float64
		polyline []domain.Coordinates
		toll     *domain.TollInfo
	)
	origin := depot

	for start := 0; start < n; start += limit {
		end := min(start+limit, n)
		chunk := route.Stops[start:end]

		waypoints := make([]domain.Coordinates, len(chunk))
		for i, st := range chunk {
			waypoints[i] = *st.Coords
		}

		path, err := s.optimize(ctx, origin, depot, waypoints)
		if err != nil {
			return domain.Route{}, fmt.Errorf("chunk %d-%d: %w", start, end, err)
		}
		if err := validPermutation(path.Order, len(chunk)); err != nil {
			return domain.Route{}, fmt.Errorf("chunk %d-%d: %w: %w", start, end, ports.ErrSequencingUnavailable, err)
		}

		for _, idx := range path.Order {
			ordered = append(ordered, chunk[idx])
		}

		legs := path.LegMeters
		if end < n && len(legs) > 0 {
			legs = legs[:len(legs)-1]
		}
		for _, m := range legs {
			meters += m
		}

		polyline = append(polyline, path.Polyline...)
		toll = addToll(toll, path.Toll)
		origin = *ordered[len(ordered)-1].Coords
	}

	route.Stops = ordered
	route.TotalDistanceKm = meters / 1000
	route.Polyline = polyline
	route.Toll = toll
	route.Sequencing = domain.SequencingRoad
	return route, nil
}

func validPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("waypoint order has %d entries, want %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return errors.New("waypoint order is not a permutation")
		}
		seen[i] = true
	}
	return nil
}

func addToll(total, next *domain.TollInfo) *domain.TollInfo {
	if next == nil {
		return total
	}
	if total == nil {
		t := *next
		return &t
	}
	if total.Currency != next.Currency {
		log.Printf("sequence: mixed toll currencies %s/%s, keeping %s", total.Currency, next.Currency, total.Currency)
		return total
	}
	t := *total
	t.Amount += next.Amount
	t.Text = ""
	return &t
}

// NearestNeighborRoute orders stops greedily from the depot, always moving to the
// closest unvisited stop. Equal distances are broken by key, then by input
// position, so the result is deterministic. The distance includes the return leg.
func NearestNeighborRoute(route domain.Route, depot domain.Coordinates) domain.Route {
	remaining := make([]*domain.LocationGroup, len(route.Stops))
	copy(remaining, route.Stops)

	ordered := make([]*domain.LocationGroup, 0, len(remaining))
	current := depot

	for len(remaining) > 0 {
		best := -1
		bestDist := math.Inf(1)
		for i, st := range remaining {
			d := distanceFrom(st, current)
			if best == -1 || d < bestDist || (d == bestDist && st.Key < remaining[best].Key) {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		ordered = append(ordered, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		if next.Coords != nil {
			current = *next.Coords
		}
	}

	route.Stops = ordered
	path := append([]domain.Coordinates{depot}, route.Coords()...)
	path = append(path, depot)
	route.TotalDistanceKm = geo.PathKm(path)
	route.Polyline = nil
	route.Toll = nil
	route.Sequencing = domain.SequencingHeuristic
	return route
}
