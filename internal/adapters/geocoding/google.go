package geocoding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/httpx"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Google address component types per administrative level. Indian villages show up
// under several types depending on how well the area is mapped.
var googleLevels = map[string]domain.ComponentKind{
	"administrative_area_level_1": domain.ComponentState,
	"administrative_area_level_2": domain.ComponentDistrict,
	"administrative_area_level_3": domain.ComponentTaluka,
	"administrative_area_level_4": domain.ComponentVillage,
	"locality":                    domain.ComponentVillage,
	"sublocality":                 domain.ComponentVillage,
	"sublocality_level_1":         domain.ComponentVillage,
	"neighborhood":                domain.ComponentVillage,
}

// GoogleGeocoder searches the Google Geocoding API restricted to India.
// It is safe for concurrent use.
type GoogleGeocoder struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
}

func NewGoogleGeocoder(apiKey string, timeout time.Duration, opts ...httpx.Option) *GoogleGeocoder {
	return &GoogleGeocoder{
		client:  httpx.New(timeout, opts...),
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
	}
}

// WithBaseURL points the geocoder at another endpoint (tests, proxies).
func (g *GoogleGeocoder) WithBaseURL(u string) *GoogleGeocoder {
	g.baseURL = u
	return g
}

func (g *GoogleGeocoder) Configured() bool { return g.apiKey != "" }

func (g *GoogleGeocoder) Search(ctx context.Context, text string) (_ []ports.Candidate, err error) {
	defer obs.Time(ctx, "google.geocode")(&err)

	if !g.Configured() {
		return nil, fmt.Errorf("google geocode: %w: no api key", ports.ErrProviderUnavailable)
	}

	var decoded googleGeocodeResponse
	err = g.client.GetJSON(ctx, g.baseURL, map[string]string{
		"address":    text,
		"key":        g.apiKey,
		"components": "country:IN",
		"region":     "in",
	}, &decoded)
	if err != nil {
		if httpx.Unavailable(err) {
			return nil, fmt.Errorf("google geocode %q: %w: %w", text, ports.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("google geocode %q: %w", text, err)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT", "REQUEST_DENIED", "UNKNOWN_ERROR":
		return nil, fmt.Errorf("google geocode %q: %w: %s %s", text, ports.ErrProviderUnavailable, decoded.Status, decoded.ErrorMessage)
	default:
		return nil, errors.New("google geocode: unexpected status " + decoded.Status)
	}

	out := make([]ports.Candidate, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		c := ports.Candidate{
			Coords: domain.Coordinates{
				Lat: r.Geometry.Location.Lat,
				Lon: r.Geometry.Location.Lng,
			},
			FormattedAddress: r.FormattedAddress,
			Components:       make(map[domain.ComponentKind][]string),
		}
		for _, ac := range r.AddressComponents {
			for _, t := range ac.Types {
				if t == "country" {
					c.CountryCode = ac.ShortName
				}
				if kind, ok := googleLevels[t]; ok {
					c.Components[kind] = appendUnique(c.Components[kind], ac.LongName)
				}
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
