package geocoding

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/httpx"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// OSM address keys per level, most specific first.
var nominatimLevels = []struct {
	kind domain.ComponentKind
	keys []string
}{
	{domain.ComponentState, []string{"state"}},
	{domain.ComponentDistrict, []string{"state_district"}},
	{domain.ComponentTaluka, []string{"county", "subdistrict", "municipality"}},
	{domain.ComponentVillage, []string{"village", "hamlet", "town", "suburb", "neighbourhood", "city"}},
}

// NominatimGeocoder queries an OpenStreetMap Nominatim instance. Requests are
// throttled to one per second across all callers, per the public usage policy.
type NominatimGeocoder struct {
	client  *httpx.Client
	baseURL string
	limiter *rate.Limiter
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration, opts ...httpx.Option) *NominatimGeocoder {
	opts = append([]httpx.Option{httpx.WithHeader("User-Agent", userAgent)}, opts...)
	return &NominatimGeocoder{
		client:  httpx.New(timeout, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// WithRateLimit replaces the request pacing; tests use rate.Inf.
func (n *NominatimGeocoder) WithRateLimit(l rate.Limit) *NominatimGeocoder {
	n.limiter = rate.NewLimiter(l, 1)
	return n
}

func (n *NominatimGeocoder) Configured() bool { return n.baseURL != "" }

func (n *NominatimGeocoder) Search(ctx context.Context, text string) (_ []ports.Candidate, err error) {
	defer obs.Time(ctx, "nominatim.search")(&err)

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim search: %w: %w", ports.ErrProviderUnavailable, err)
	}

	var places []nominatimPlace
	err = n.client.GetJSON(ctx, n.baseURL+"/search", map[string]string{
		"q":              text,
		"format":         "jsonv2",
		"addressdetails": "1",
		"countrycodes":   "in",
		"limit":          "5",
	}, &places)
	if err != nil {
		if httpx.Unavailable(err) {
			return nil, fmt.Errorf("nominatim search %q: %w: %w", text, ports.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("nominatim search %q: %w", text, err)
	}

	out := make([]ports.Candidate, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}

		c := ports.Candidate{
			Coords:           domain.Coordinates{Lat: lat, Lon: lon},
			FormattedAddress: p.DisplayName,
			CountryCode:      strings.ToUpper(p.Address["country_code"]),
			Components:       make(map[domain.ComponentKind][]string),
		}
		for _, lvl := range nominatimLevels {
			for _, k := range lvl.keys {
				c.Components[lvl.kind] = appendUnique(c.Components[lvl.kind], p.Address[k])
			}
		}
		// Some areas only tag county; treat it as the district when nothing better exists.
		if len(c.Components[domain.ComponentDistrict]) == 0 && p.Address["county"] != "" {
			c.Components[domain.ComponentDistrict] = []string{p.Address["county"]}
		}
		out = append(out, c)
	}
	return out, nil
}
