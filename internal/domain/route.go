package domain

import "fmt"

// SequencingMethod records how the stop order of a route was decided.
type SequencingMethod string

const (
	SequencingNone      SequencingMethod = ""
	SequencingRoad      SequencingMethod = "road"
	SequencingHeuristic SequencingMethod = "heuristic"
)

// TollInfo is fare/toll data reported by the road routing provider, when available.
type TollInfo struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Text     string  `json:"text,omitempty"`
}

// Cluster is a transient spatial grouping of located groups, alive only during optimization.
type Cluster struct {
	Centroid Coordinates
	Members  []*LocationGroup
}

// TotalPlants sums demand over every member.
func (c Cluster) TotalPlants() int {
	total := 0
	for _, m := range c.Members {
		total += m.TotalPlants()
	}
	return total
}

// Represents the planned delivery route for a single vehicle.
// A Route is created by the route builder, has its stop order finalized by the
// sequencer, and is not mutated after being returned to the caller.
type Route struct {
	Stops           []*LocationGroup `json:"stops"`
	TotalPlants     int              `json:"total_plants"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	Polyline        []Coordinates    `json:"polyline,omitempty"`
	Toll            *TollInfo        `json:"toll,omitempty"`
	Sequencing      SequencingMethod `json:"sequencing"`
}

// Fits reports whether plants more units can be loaded without exceeding capacity.
func (r *Route) Fits(plants, capacity int) bool {
	return r.TotalPlants+plants <= capacity
}

// Add appends a stop to the route, refusing loads that would exceed capacity.
func (r *Route) Add(g *LocationGroup, capacity int) error {
	plants := g.TotalPlants()
	if !r.Fits(plants, capacity) {
		return fmt.Errorf("add stop %q: load %d + %d exceeds capacity %d", g.Key, r.TotalPlants, plants, capacity)
	}
	r.Stops = append(r.Stops, g)
	r.TotalPlants += plants
	return nil
}

// Coords returns the stop coordinates in route order. Stops without a coordinate are skipped.
func (r *Route) Coords() []Coordinates {
	out := make([]Coordinates, 0, len(r.Stops))
	for _, s := range r.Stops {
		if s.Coords != nil {
			out = append(out, *s.Coords)
		}
	}
	return out
}

// UnassignedOrder is an order that could not be placed on any route.
type UnassignedOrder struct {
	OrderID       int    `json:"order_id"`
	LocationKey   string `json:"location_key"`
	PlantQuantity int    `json:"plant_quantity"`
	Reason        string `json:"reason"`
}

const ReasonCapacityOverflow = "capacity_overflow"

// PlanResult is the full output of one optimization run.
type PlanResult struct {
	Routes     []Route           `json:"routes"`
	Locations  []*LocationGroup  `json:"locations"`
	Unassigned []UnassignedOrder `json:"unassigned"`
	Warnings   []string          `json:"warnings"`
}
