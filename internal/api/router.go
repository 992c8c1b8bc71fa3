package api

import (
	"net/http"

	"agri-route-service/internal/api/handlers"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/services"
)

// Dependencies of the HTTP API. Overrides may be nil, in which case the
// /overrides endpoint is not mounted.
type RouterDeps struct {
	Orders    ports.OrderRepository
	Overrides ports.OverrideStore
	Planner   services.PlanDeps
	Depot     domain.Coordinates
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.OrderHandler{Repo: deps.Orders}
	planHandler := &handlers.PlanHandler{
		Repo:      deps.Orders,
		Overrides: deps.Overrides,
		Deps:      deps.Planner,
		Depot:     deps.Depot,
	}
	geocodeHandler := &handlers.GeocodeHandler{
		Geocoder:  deps.Planner.Geocoder,
		Overrides: deps.Overrides,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/orders", orderHandler.List)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/geocode", geocodeHandler.Geocode)
	if deps.Overrides != nil {
		overrideHandler := &handlers.OverrideHandler{Store: deps.Overrides}
		mux.HandleFunc("/overrides", overrideHandler.Handle)
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
