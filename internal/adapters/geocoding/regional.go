package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/httpx"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

// RegionalGeocoder calls a state or national government geocoding endpoint that
// answers a free-text address with one coordinate. Response shapes differ between
// deployments, so the decoder looks for the usual latitude/longitude keys either at
// the top level or in the first element of "results".
type RegionalGeocoder struct {
	client  *httpx.Client
	baseURL string
	token   string
}

func NewRegionalGeocoder(baseURL, token string, timeout time.Duration, opts ...httpx.Option) *RegionalGeocoder {
	if token != "" {
		opts = append([]httpx.Option{httpx.WithHeader("Authorization", "Bearer "+token)}, opts...)
	}
	return &RegionalGeocoder{
		client:  httpx.New(timeout, opts...),
		baseURL: baseURL,
		token:   token,
	}
}

func (r *RegionalGeocoder) Configured() bool { return r.baseURL != "" && r.token != "" }

func (r *RegionalGeocoder) Locate(ctx context.Context, q domain.LocationQuery) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "regional.locate")(&err)

	if !r.Configured() {
		return domain.Coordinates{}, fmt.Errorf("regional geocode: %w: not configured", ports.ErrProviderUnavailable)
	}

	address := strings.Join(nonEmpty(q.Village, q.Taluka, q.District, q.State), ", ")

	var decoded map[string]any
	if err := r.client.GetJSON(ctx, r.baseURL, map[string]string{"address": address}, &decoded); err != nil {
		if httpx.Unavailable(err) {
			return domain.Coordinates{}, fmt.Errorf("regional geocode %q: %w: %w", address, ports.ErrProviderUnavailable, err)
		}
		return domain.Coordinates{}, fmt.Errorf("regional geocode %q: %w", address, err)
	}

	c, ok := extractLatLon(decoded)
	if !ok {
		if results, _ := decoded["results"].([]any); len(results) > 0 {
			if first, _ := results[0].(map[string]any); first != nil {
				c, ok = extractLatLon(first)
			}
		}
	}
	if !ok || c.Lat == 0 || c.Lon == 0 {
		return domain.Coordinates{}, fmt.Errorf("regional geocode %q: %w", address, ports.ErrNoAcceptableMatch)
	}
	return c, nil
}

func extractLatLon(m map[string]any) (domain.Coordinates, bool) {
	lat, okLat := firstNumber(m, "lat", "latitude")
	lon, okLon := firstNumber(m, "lng", "lon", "longitude")
	if !okLat || !okLon {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, true
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
