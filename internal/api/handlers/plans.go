package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"

	"agri-route-service/internal/api/dto"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/services"
)

const maxVehicleCapacity = 1_000_000

type PlanHandler struct {
	Repo      ports.OrderRepository
	Overrides ports.OverrideStore // optional
	Deps      services.PlanDeps
	Depot     domain.Coordinates
}

// Plan groups, geocodes, clusters and sequences orders into vehicle routes.
// Orders exceeding the vehicle capacity are reported as unassigned in a 200 response.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req dto.PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.VehicleCapacity < 1 || req.VehicleCapacity > maxVehicleCapacity {
		writeError(w, r, http.StatusBadRequest, "vehicle_capacity must be between 1 and 1000000")
		return
	}

	depot := h.Depot
	if req.Depot != nil {
		depot = domain.Coordinates{Lat: req.Depot.Lat, Lon: req.Depot.Lon}
		if err := depot.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid depot: "+err.Error())
			return
		}
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	orders := req.Orders
	if len(orders) == 0 {
		stored, err := h.Repo.ListOrders(ctx)
		if err != nil {
			obs.Logf(ctx, "plan: list orders failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		orders = stored
	}

	var overrides map[string]domain.Coordinates
	if h.Overrides != nil {
		var err error
		overrides, err = h.Overrides.ListOverrides(ctx)
		if err != nil {
			// Overrides are a refinement; planning proceeds without them.
			obs.Logf(ctx, "plan: list overrides failed: %v", err)
		}
	}

	result, err := services.PlanRoutes(ctx, services.PlanRoutesRequest{
		Orders:          orders,
		Depot:           depot,
		VehicleCapacity: req.VehicleCapacity,
		Seed:            seed,
		Overrides:       overrides,
	}, h.Deps)

	var overflow *domain.CapacityOverflowError
	switch {
	case err == nil:
	case errors.As(err, &overflow) && result != nil:
		obs.Logf(ctx, "plan: %v", overflow)
	case errors.Is(err, domain.ErrInvalidPlanRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	default:
		obs.Logf(ctx, "plan routes failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(seed, depot, result))
}

func toPlanResponse(seed uint64, depot domain.Coordinates, result *domain.PlanResult) dto.PlanResponse {
	res := dto.PlanResponse{
		Seed:       seed,
		Depot:      toCoordinatesDTO(depot),
		Routes:     make([]dto.RouteResponse, 0, len(result.Routes)),
		Locations:  make([]dto.StopResponse, 0, len(result.Locations)),
		Unassigned: result.Unassigned,
		Warnings:   result.Warnings,
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}

	for i, rt := range result.Routes {
		stops := make([]dto.StopResponse, 0, len(rt.Stops))
		for _, s := range rt.Stops {
			stops = append(stops, toStopResponse(s))
		}
		var line []dto.CoordinatesDTO
		for _, c := range rt.Polyline {
			line = append(line, toCoordinatesDTO(c))
		}
		res.Routes = append(res.Routes, dto.RouteResponse{
			RouteID:         i + 1,
			Stops:           stops,
			TotalPlants:     rt.TotalPlants,
			TotalDistanceKm: rt.TotalDistanceKm,
			Sequencing:      string(rt.Sequencing),
			Polyline:        line,
			Toll:            rt.Toll,
		})
	}

	for _, g := range result.Locations {
		res.Locations = append(res.Locations, toStopResponse(g))
	}

	return res
}

func toStopResponse(g *domain.LocationGroup) dto.StopResponse {
	s := dto.StopResponse{
		LocationKey: g.Key,
		Village:     g.Village,
		Taluka:      g.Taluka,
		District:    g.District,
		TotalPlants: g.TotalPlants(),
		OrderIDs:    make([]int, 0, len(g.Orders)),
	}
	if g.Coords != nil {
		c := toCoordinatesDTO(*g.Coords)
		s.Coords = &c
	}
	if g.Geocode != nil {
		s.Accuracy = g.Geocode.Accuracy.String()
		s.Source = g.Geocode.Source
	}
	for _, o := range g.Orders {
		s.OrderIDs = append(s.OrderIDs, o.OrderID)
	}
	return s
}
