package handlers

import (
	"net/http"
	"strings"

	"agri-route-service/internal/api/dto"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/services"
)

// GeocodeHandler resolves a single location through the same cache, override and
// provider chain used by planning.
type GeocodeHandler struct {
	Geocoder  *services.BatchGeocoder
	Overrides ports.OverrideStore // optional
}

func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req dto.GeocodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Village) == "" && strings.TrimSpace(req.District) == "" {
		writeError(w, r, http.StatusBadRequest, "village or district is required")
		return
	}

	q := domain.LocationQuery{
		Village:  strings.TrimSpace(req.Village),
		Taluka:   strings.TrimSpace(req.Taluka),
		District: strings.TrimSpace(req.District),
		State:    strings.TrimSpace(req.State),
	}
	group := &domain.LocationGroup{
		Key:      q.Key(),
		Village:  q.Village,
		Taluka:   q.Taluka,
		District: q.District,
		State:    q.State,
	}

	var overrides map[string]domain.Coordinates
	if h.Overrides != nil {
		var err error
		if overrides, err = h.Overrides.ListOverrides(ctx); err != nil {
			obs.Logf(ctx, "geocode: list overrides failed: %v", err)
		}
	}

	if err := h.Geocoder.ResolveAll(ctx, []*domain.LocationGroup{group}, overrides, nil); err != nil {
		obs.Logf(ctx, "geocode failed: key=%q err=%v", group.Key, err)
		writeError(w, r, http.StatusServiceUnavailable, "geocoding interrupted")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{LocationKey: group.Key, Result: *group.Geocode})
}
