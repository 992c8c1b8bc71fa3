package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/httpx"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

const (
	googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"
	// Directions allows 25 waypoints on standard plans; two are kept spare.
	googleMaxWaypoints = 23
)

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Fare *struct {
			Currency string  `json:"currency"`
			Value    float64 `json:"value"`
			Text     string  `json:"text"`
		} `json:"fare"`
	} `json:"routes"`
}

// GoogleDirections implements ports.WaypointOptimizer with the Directions API
// "optimize:true" waypoint mode.
type GoogleDirections struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
}

func NewGoogleDirections(apiKey string, timeout time.Duration, opts ...httpx.Option) *GoogleDirections {
	return &GoogleDirections{
		client:  httpx.New(timeout, opts...),
		apiKey:  apiKey,
		baseURL: googleDirectionsURL,
	}
}

func (d *GoogleDirections) WithBaseURL(u string) *GoogleDirections {
	d.baseURL = u
	return d
}

func (d *GoogleDirections) Configured() bool { return d.apiKey != "" }

func (d *GoogleDirections) MaxWaypoints() int { return googleMaxWaypoints }

func (d *GoogleDirections) Optimize(
	ctx context.Context,
	origin, destination domain.Coordinates,
	waypoints []domain.Coordinates,
) (_ *ports.OptimizedPath, err error) {
	defer obs.Time(ctx, "google.directions")(&err)

	if !d.Configured() {
		return nil, fmt.Errorf("directions: %w: no api key", ports.ErrSequencingUnavailable)
	}
	if len(waypoints) > googleMaxWaypoints {
		return nil, fmt.Errorf("directions: %d waypoints exceeds limit %d", len(waypoints), googleMaxWaypoints)
	}

	wp := make([]string, 0, len(waypoints)+1)
	wp = append(wp, "optimize:true")
	for _, c := range waypoints {
		wp = append(wp, c.String())
	}

	var decoded directionsResponse
	err = d.client.GetJSON(ctx, d.baseURL, map[string]string{
		"origin":      origin.String(),
		"destination": destination.String(),
		"waypoints":   strings.Join(wp, "|"),
		"key":         d.apiKey,
		"region":      "in",
	}, &decoded)
	if err != nil {
		return nil, fmt.Errorf("directions: %w: %w", ports.ErrSequencingUnavailable, err)
	}
	if decoded.Status != "OK" || len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("directions: %w: status %s %s", ports.ErrSequencingUnavailable, decoded.Status, decoded.ErrorMessage)
	}

	r := decoded.Routes[0]
	if len(r.WaypointOrder) != len(waypoints) {
		return nil, fmt.Errorf("directions: %w: waypoint order has %d entries, sent %d",
			ports.ErrSequencingUnavailable, len(r.WaypointOrder), len(waypoints))
	}

	out := &ports.OptimizedPath{
		Order:     r.WaypointOrder,
		LegMeters: make([]float64, 0, len(r.Legs)),
	}
	for _, leg := range r.Legs {
		out.LegMeters = append(out.LegMeters, leg.Distance.Value)
	}
	if r.Fare != nil {
		out.Toll = &domain.TollInfo{Currency: r.Fare.Currency, Amount: r.Fare.Value, Text: r.Fare.Text}
	}

	if r.OverviewPolyline.Points != "" {
		coords, _, err := polyline.DecodeCoords([]byte(r.OverviewPolyline.Points))
		if err != nil {
			// A broken polyline does not invalidate the order or distances.
			obs.Logf(ctx, "directions: decode polyline err=%v", err)
		} else {
			out.Polyline = make([]domain.Coordinates, 0, len(coords))
			for _, c := range coords {
				out.Polyline = append(out.Polyline, domain.Coordinates{Lat: c[0], Lon: c[1]})
			}
		}
	}

	return out, nil
}
