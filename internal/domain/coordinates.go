package domain

import (
	"errors"
	"fmt"
	"math"
)

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String formats the coordinates as "lat,lon" as expected by most HTTP map APIs.
func (c Coordinates) String() string { return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon) }

// Validate rejects NaN and out-of-range components.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return errors.New("coordinates: NaN component")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("coordinates: latitude %v out of range", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("coordinates: longitude %v out of range", c.Lon)
	}
	return nil
}

// DefaultRegionCenter is the last-resort coordinate substituted when no provider
// could place a location (geographic center of Maharashtra).
var DefaultRegionCenter = Coordinates{Lat: 19.7515, Lon: 75.7139}

// CountryBounds is the bounding box used to discard geocoding candidates outside India.
var CountryBounds = BoundingBox{MinLat: 6.4, MaxLat: 37.6, MinLon: 68.1, MaxLon: 97.4}

// BoundingBox is an axis-aligned lat/lon rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether c lies inside the box (edges inclusive).
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}
