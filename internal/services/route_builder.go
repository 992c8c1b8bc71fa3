package services

import (
	"math"
	"slices"
	"strings"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/geo"
)

// BuildRoutes packs a cluster into capacity-respecting routes.
//
// Members are sorted by distance from the depot and loaded greedily: each member
// that still fits goes on the current route, the rest wait for the next route,
// and the sort-and-fill repeats until nothing is left. This is a planning
// heuristic, not a bin-packing optimum.
//
// A location whose total demand exceeds capacity is split by orders into several
// stops sharing its key. An individual order larger than capacity cannot be
// carried at all and is returned as unassigned.
func BuildRoutes(cluster domain.Cluster, depot domain.Coordinates, capacity int) ([]domain.Route, []domain.UnassignedOrder) {
	if capacity <= 0 {
		return nil, nil
	}

	members, unassigned := splitOversized(cluster.Members, capacity)

	remaining := slices.Clone(members)
	routes := make([]domain.Route, 0)
	for len(remaining) > 0 {
		sortByDepotDistance(remaining, depot)

		route := domain.Route{}
		rest := remaining[:0:0]
		for _, m := range remaining {
			// Add only fails when the member does not fit.
			if err := route.Add(m, capacity); err != nil {
				rest = append(rest, m)
			}
		}
		if len(route.Stops) == 0 {
			// Unreachable once oversized orders are removed; guards against looping.
			break
		}
		routes = append(routes, route)
		remaining = rest
	}

	return routes, unassigned
}

// sortByDepotDistance orders members nearest first. Ties fall back to the key so
// the packing is deterministic; the stable sort keeps split parts in order.
func sortByDepotDistance(members []*domain.LocationGroup, depot domain.Coordinates) {
	slices.SortStableFunc(members, func(a, b *domain.LocationGroup) int {
		da, db := distanceFrom(a, depot), distanceFrom(b, depot)
		if da < db {
			return -1
		}
		if da > db {
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
}

func distanceFrom(g *domain.LocationGroup, p domain.Coordinates) float64 {
	if g.Coords == nil {
		return math.Inf(1)
	}
	return geo.DistanceKm(p, *g.Coords)
}

// splitOversized returns groups that each fit into one vehicle, plus the orders
// that cannot fit into any vehicle.
func splitOversized(groups []*domain.LocationGroup, capacity int) ([]*domain.LocationGroup, []domain.UnassignedOrder) {
	out := make([]*domain.LocationGroup, 0, len(groups))
	var unassigned []domain.UnassignedOrder

	for _, g := range groups {
		if g.TotalPlants() <= capacity {
			out = append(out, g)
			continue
		}

		var part *domain.LocationGroup
		load := 0
		for _, o := range g.Orders {
			if o.PlantQuantity > capacity {
				unassigned = append(unassigned, domain.UnassignedOrder{
					OrderID:       o.OrderID,
					LocationKey:   g.Key,
					PlantQuantity: o.PlantQuantity,
					Reason:        domain.ReasonCapacityOverflow,
				})
				continue
			}
			if part == nil || load+o.PlantQuantity > capacity {
				part = splitPart(g)
				out = append(out, part)
				load = 0
			}
			part.Orders = append(part.Orders, o)
			load += o.PlantQuantity
		}
	}
	return out, unassigned
}

func splitPart(g *domain.LocationGroup) *domain.LocationGroup {
	return &domain.LocationGroup{
		Key:      g.Key,
		Village:  g.Village,
		Taluka:   g.Taluka,
		District: g.District,
		State:    g.State,
		Coords:   g.Coords,
		Geocode:  g.Geocode,
	}
}
