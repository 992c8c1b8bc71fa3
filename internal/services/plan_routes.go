package services

import (
	"context"
	"fmt"
	"math/rand/v2"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

type PlanRoutesRequest struct {
	Orders          []*domain.Order
	Depot           domain.Coordinates
	VehicleCapacity int
	// Seed for cluster initialization; equal seeds give equal plans for equal geocodes.
	Seed      uint64
	Overrides map[string]domain.Coordinates
	// Zero means DefaultMaxIterations.
	MaxIterations int
}

// PlanDeps are the long-lived collaborators of a planning run.
type PlanDeps struct {
	Geocoder  *BatchGeocoder
	Sequencer *Sequencer
	Progress  ports.ProgressSink
}

// PlanRoutes runs the full pipeline: group orders by location, geocode the
// groups, cluster them, pack each cluster into vehicles and sequence every route.
//
// Orders too large for any vehicle do not fail the run: the plan is returned
// together with a *domain.CapacityOverflowError listing them.
func PlanRoutes(ctx context.Context, req PlanRoutesRequest, deps PlanDeps) (_ *domain.PlanResult, err error) {
	defer obs.Time(ctx, "PlanRoutes")(&err)

	if err := validatePlanRequest(req); err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	groups := domain.GroupOrders(req.Orders)

	if err := deps.Geocoder.ResolveAll(ctx, groups, req.Overrides, deps.Progress); err != nil {
		return nil, fmt.Errorf("plan routes: geocode: %w", err)
	}

	total := 0
	for _, g := range groups {
		total += g.TotalPlants()
	}
	k := ClusterCount(total, req.VehicleCapacity)
	rng := rand.New(rand.NewPCG(req.Seed, req.Seed))
	clusters := KMeans(groups, k, req.MaxIterations, rng)

	var (
		routes     []domain.Route
		unassigned []domain.UnassignedOrder
	)
	for _, c := range clusters {
		rs, un := BuildRoutes(c, req.Depot, req.VehicleCapacity)
		routes = append(routes, rs...)
		unassigned = append(unassigned, un...)
	}

	routes = deps.Sequencer.SequenceAll(ctx, routes, req.Depot)

	result := &domain.PlanResult{
		Routes:     routes,
		Locations:  groups,
		Unassigned: unassigned,
		Warnings:   planWarnings(groups, routes, unassigned),
	}
	if result.Unassigned == nil {
		result.Unassigned = []domain.UnassignedOrder{}
	}

	if len(unassigned) > 0 {
		return result, &domain.CapacityOverflowError{Capacity: req.VehicleCapacity, Orders: unassigned}
	}
	return result, nil
}

func validatePlanRequest(req PlanRoutesRequest) error {
	if req.VehicleCapacity <= 0 {
		return fmt.Errorf("%w: vehicle capacity must be positive, got %d", domain.ErrInvalidPlanRequest, req.VehicleCapacity)
	}
	if len(req.Orders) == 0 {
		return fmt.Errorf("%w: no orders", domain.ErrInvalidPlanRequest)
	}
	for _, o := range req.Orders {
		if o == nil {
			return fmt.Errorf("%w: nil order", domain.ErrInvalidPlanRequest)
		}
		if o.PlantQuantity < 0 {
			return fmt.Errorf("%w: order %d has negative plant quantity", domain.ErrInvalidPlanRequest, o.OrderID)
		}
		if o.Village == "" && o.Taluka == "" && o.District == "" {
			return fmt.Errorf("%w: order %d has no location", domain.ErrInvalidPlanRequest, o.OrderID)
		}
	}
	return nil
}

// planWarnings flags everything a dispatcher should double-check before trusting the plan.
func planWarnings(groups []*domain.LocationGroup, routes []domain.Route, unassigned []domain.UnassignedOrder) []string {
	warnings := make([]string, 0)
	for _, g := range groups {
		if g.Geocode == nil {
			continue
		}
		switch g.Geocode.Accuracy {
		case domain.AccuracyLow, domain.AccuracyFallback, domain.AccuracyError:
			warnings = append(warnings, fmt.Sprintf("location %q resolved with %s accuracy via %s", g.Key, g.Geocode.Accuracy, g.Geocode.Source))
		}
	}
	for i, r := range routes {
		if r.Sequencing == domain.SequencingHeuristic {
			warnings = append(warnings, fmt.Sprintf("route %d sequenced by straight-line heuristic; distance is approximate", i+1))
		}
	}
	for _, u := range unassigned {
		warnings = append(warnings, fmt.Sprintf("order %d (%d plants at %q) exceeds vehicle capacity and was not assigned", u.OrderID, u.PlantQuantity, u.LocationKey))
	}
	return warnings
}
