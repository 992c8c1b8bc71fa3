package handlers

import (
	"net/http"
	"sort"
	"strings"

	"agri-route-service/internal/api/dto"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

// OverrideHandler manages manual coordinate corrections. A stored override wins
// over every provider on later plans and lookups.
type OverrideHandler struct {
	Store ports.OverrideStore
}

func (h *OverrideHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.put(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OverrideHandler) list(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.Store.ListOverrides(r.Context())
	if err != nil {
		obs.Logf(r.Context(), "list overrides failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := dto.ListOverridesResponse{Overrides: make([]dto.OverrideResponse, 0, len(keys))}
	for _, k := range keys {
		res.Overrides = append(res.Overrides, dto.OverrideResponse{LocationKey: k, Coords: toCoordinatesDTO(overrides[k])})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *OverrideHandler) put(w http.ResponseWriter, r *http.Request) {
	var req dto.OverrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Village) == "" && strings.TrimSpace(req.District) == "" {
		writeError(w, r, http.StatusBadRequest, "village or district is required")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lon are required")
		return
	}

	c := domain.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
	if err := c.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !domain.CountryBounds.Contains(c) {
		writeError(w, r, http.StatusBadRequest, "coordinates outside service area")
		return
	}

	key := domain.LocationKey(req.Village, req.Taluka, req.District)
	if err := h.Store.PutOverride(r.Context(), key, c); err != nil {
		obs.Logf(r.Context(), "put override failed: key=%q err=%v", key, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.OverrideResponse{LocationKey: key, Coords: toCoordinatesDTO(c)})
}
