package dto

import "agri-route-service/internal/domain"

type CoordinatesDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type PlanRequest struct {
	Depot           *CoordinatesDTO `json:"depot"`
	VehicleCapacity int             `json:"vehicle_capacity"`
	// Omitted seeds are generated and echoed back so a plan can be replayed.
	Seed *uint64 `json:"seed"`
	// Orders default to the stored orders when empty.
	Orders []*domain.Order `json:"orders"`
}

type StopResponse struct {
	LocationKey string            `json:"location_key"`
	Village     string            `json:"village"`
	Taluka      string            `json:"taluka"`
	District    string            `json:"district"`
	Coords      *CoordinatesDTO   `json:"coords,omitempty"`
	Accuracy    string            `json:"accuracy,omitempty"`
	Source      domain.ProviderID `json:"source,omitempty"`
	TotalPlants int               `json:"total_plants"`
	OrderIDs    []int             `json:"order_ids"`
}

type RouteResponse struct {
	RouteID         int              `json:"route_id"`
	Stops           []StopResponse   `json:"stops"`
	TotalPlants     int              `json:"total_plants"`
	TotalDistanceKm float64          `json:"total_distance_km"`
	Sequencing      string           `json:"sequencing"`
	Polyline        []CoordinatesDTO `json:"polyline,omitempty"`
	Toll            *domain.TollInfo `json:"toll,omitempty"`
}

type PlanResponse struct {
	Seed       uint64                   `json:"seed"`
	Depot      CoordinatesDTO           `json:"depot"`
	Routes     []RouteResponse          `json:"routes"`
	Locations  []StopResponse           `json:"locations"`
	Unassigned []domain.UnassignedOrder `json:"unassigned"`
	Warnings   []string                 `json:"warnings"`
}
