package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccuracyTier is a qualitative confidence label attached to a resolved coordinate.
// Tiers are totally ordered; a lower value ranks better.
type AccuracyTier int

const (
	AccuracyHigh AccuracyTier = iota
	AccuracyMedium
	AccuracyLow
	AccuracyManual
	AccuracyFallback
	AccuracyError
)

var tierNames = [...]string{"high", "medium", "low", "manual", "fallback", "error"}

func (t AccuracyTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Better reports whether t ranks strictly ahead of other.
func (t AccuracyTier) Better(other AccuracyTier) bool { return t < other }

// Reliable reports whether the coordinate came from an actual match (or a human)
// rather than a substituted default.
func (t AccuracyTier) Reliable() bool {
	return t == AccuracyHigh || t == AccuracyMedium || t == AccuracyManual
}

func ParseAccuracyTier(s string) (AccuracyTier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == s {
			return AccuracyTier(i), nil
		}
	}
	return AccuracyError, fmt.Errorf("parse accuracy tier: unknown tier %q", s)
}

func (t AccuracyTier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *AccuracyTier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("accuracy tier: %w", err)
	}
	parsed, err := ParseAccuracyTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ComponentKind names one administrative level of a farmer address.
type ComponentKind string

const (
	ComponentVillage  ComponentKind = "village"
	ComponentTaluka   ComponentKind = "taluka"
	ComponentDistrict ComponentKind = "district"
	ComponentState    ComponentKind = "state"
)

// ProviderID identifies where a GeocodeResult came from.
type ProviderID string

const (
	ProviderCommercial ProviderID = "google"
	ProviderRegional   ProviderID = "regional"
	ProviderOpen       ProviderID = "nominatim"
	ProviderDistrict   ProviderID = "district_center"
	ProviderDefault    ProviderID = "region_default"
	ProviderManual     ProviderID = "manual"
)

// LocationQuery is the administrative tuple a farmer location is resolved from.
type LocationQuery struct {
	Village  string `json:"village"`
	Taluka   string `json:"taluka"`
	District string `json:"district"`
	State    string `json:"state"`
}

// Key returns the grouping key for the query (state is not part of the identity).
func (q LocationQuery) Key() string { return LocationKey(q.Village, q.Taluka, q.District) }

// GeocodeResult is produced once per resolved location and replaced wholesale, never mutated.
type GeocodeResult struct {
	Coords      Coordinates               `json:"coords"`
	Accuracy    AccuracyTier              `json:"accuracy"`
	Source      ProviderID                `json:"source"`
	Matched     []ComponentKind           `json:"matched_components"`
	Confidence  map[ComponentKind]float64 `json:"confidence"`
	Score       int                       `json:"score"`
	DisplayName string                    `json:"display_name,omitempty"`
}

// ManualResult wraps a human-supplied correction.
func ManualResult(c Coordinates) GeocodeResult {
	return GeocodeResult{
		Coords:     c,
		Accuracy:   AccuracyManual,
		Source:     ProviderManual,
		Confidence: map[ComponentKind]float64{},
	}
}
