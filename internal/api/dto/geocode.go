package dto

import "agri-route-service/internal/domain"

type GeocodeRequest struct {
	Village  string `json:"village"`
	Taluka   string `json:"taluka"`
	District string `json:"district"`
	State    string `json:"state"`
}

type GeocodeResponse struct {
	LocationKey string               `json:"location_key"`
	Result      domain.GeocodeResult `json:"result"`
}

type OverrideRequest struct {
	Village  string   `json:"village"`
	Taluka   string   `json:"taluka"`
	District string   `json:"district"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
}

type OverrideResponse struct {
	LocationKey string         `json:"location_key"`
	Coords      CoordinatesDTO `json:"coords"`
}

type ListOverridesResponse struct {
	Overrides []OverrideResponse `json:"overrides"`
}
