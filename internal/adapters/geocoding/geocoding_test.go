package geocoding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/httpx"
	"agri-route-service/internal/ports"
)

const googleWagholi = `{
  "status": "OK",
  "results": [{
    "formatted_address": "Wagholi, Haveli, Pune, Maharashtra 412207, India",
    "address_components": [
      {"long_name": "Wagholi", "short_name": "Wagholi", "types": ["locality", "political"]},
      {"long_name": "Haveli", "short_name": "Haveli", "types": ["administrative_area_level_3", "political"]},
      {"long_name": "Pune", "short_name": "Pune", "types": ["administrative_area_level_2", "political"]},
      {"long_name": "Maharashtra", "short_name": "MH", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "India", "short_name": "IN", "types": ["country", "political"]}
    ],
    "geometry": {"location": {"lat": 18.5793, "lng": 73.9823}}
  }]
}`

func TestGoogleSearchExtractsComponents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "country:IN", q.Get("components"))
		assert.Equal(t, "Wagholi, Haveli, Pune", q.Get("address"))
		w.Write([]byte(googleWagholi))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder("secret", time.Second).WithBaseURL(srv.URL)
	got, err := g.Search(context.Background(), "Wagholi, Haveli, Pune")
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, domain.Coordinates{Lat: 18.5793, Lon: 73.9823}, c.Coords)
	assert.Equal(t, "IN", c.CountryCode)
	assert.Equal(t, []string{"Wagholi"}, c.Components[domain.ComponentVillage])
	assert.Equal(t, []string{"Haveli"}, c.Components[domain.ComponentTaluka])
	assert.Equal(t, []string{"Pune"}, c.Components[domain.ComponentDistrict])
	assert.Equal(t, []string{"Maharashtra"}, c.Components[domain.ComponentState])
}

func TestGoogleStatusHandling(t *testing.T) {
	status := "ZERO_RESULTS"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"` + status + `","results":[]}`))
	}))
	defer srv.Close()

	g := NewGoogleGeocoder("secret", time.Second).WithBaseURL(srv.URL)

	got, err := g.Search(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, got)

	status = "REQUEST_DENIED"
	_, err = g.Search(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}

func TestGoogleUnconfigured(t *testing.T) {
	g := NewGoogleGeocoder("", time.Second)
	assert.False(t, g.Configured())
	_, err := g.Search(context.Background(), "Pune")
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}

func TestGoogleServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGoogleGeocoder("secret", time.Second, httpx.WithRetry(2, time.Millisecond)).WithBaseURL(srv.URL)
	_, err := g.Search(context.Background(), "Pune")
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}

func TestNominatimSearchMapsAddressKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "in", r.URL.Query().Get("countrycodes"))
		assert.Equal(t, "agri-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[
		  {"lat":"18.1510","lon":"74.5770","display_name":"Baramati, Pune, Maharashtra, India",
		   "address":{"town":"Baramati","county":"Baramati","state_district":"Pune","state":"Maharashtra","country_code":"in"}},
		  {"lat":"oops","lon":"74.0","display_name":"broken","address":{}}
		]`))
	}))
	defer srv.Close()

	n := NewNominatimGeocoder(srv.URL+"/", "agri-test", time.Second).WithRateLimit(rate.Inf)
	got, err := n.Search(context.Background(), "Baramati, Pune")
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "IN", c.CountryCode)
	assert.Equal(t, []string{"Pune"}, c.Components[domain.ComponentDistrict])
	assert.Equal(t, []string{"Baramati"}, c.Components[domain.ComponentTaluka])
	assert.Equal(t, []string{"Baramati"}, c.Components[domain.ComponentVillage])
}

func TestNominatimCountyFallsBackToDistrict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"19.09","lon":"74.74","display_name":"x","address":{"village":"Rahuri","county":"Ahmednagar"}}]`))
	}))
	defer srv.Close()

	n := NewNominatimGeocoder(srv.URL, "agri-test", time.Second).WithRateLimit(rate.Inf)
	got, err := n.Search(context.Background(), "Rahuri")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Ahmednagar"}, got[0].Components[domain.ComponentDistrict])
}

func TestRegionalLocateShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.Coordinates
		err  error
	}{
		{"top level numbers", `{"lat": 18.5, "lng": 73.9}`, domain.Coordinates{Lat: 18.5, Lon: 73.9}, nil},
		{"string values", `{"latitude": "18.25", "longitude": "74.1"}`, domain.Coordinates{Lat: 18.25, Lon: 74.1}, nil},
		{"results array", `{"results": [{"lat": 19.1, "lon": 74.7}]}`, domain.Coordinates{Lat: 19.1, Lon: 74.7}, nil},
		{"zero pair", `{"lat": 0, "lng": 0}`, domain.Coordinates{}, ports.ErrNoAcceptableMatch},
		{"nothing", `{"status": "not found"}`, domain.Coordinates{}, ports.ErrNoAcceptableMatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				assert.Equal(t, "Wagholi, Haveli, Pune, Maharashtra", r.URL.Query().Get("address"))
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			r := NewRegionalGeocoder(srv.URL, "tok", time.Second)
			got, err := r.Locate(context.Background(), domain.LocationQuery{
				Village: "Wagholi", Taluka: "Haveli", District: "Pune", State: "Maharashtra",
			})
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRegionalUnconfigured(t *testing.T) {
	r := NewRegionalGeocoder("http://example.invalid", "", time.Second)
	assert.False(t, r.Configured())
	_, err := r.Locate(context.Background(), domain.LocationQuery{Village: "x"})
	assert.ErrorIs(t, err, ports.ErrProviderUnavailable)
}
