package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"agri-route-service/internal/domain"
)

// geocodeRow is the flattened storage form of a GeocodeResult shared by the SQL caches.
type geocodeRow struct {
	Key         string
	Lat, Lon    float64
	Accuracy    string
	Source      string
	Matched     string // JSON array
	Confidence  string // JSON object
	Score       int
	DisplayName string
}

func toRow(key string, r domain.GeocodeResult) (geocodeRow, error) {
	matched := r.Matched
	if matched == nil {
		matched = []domain.ComponentKind{}
	}
	m, err := json.Marshal(matched)
	if err != nil {
		return geocodeRow{}, fmt.Errorf("encode matched components: %w", err)
	}
	conf := r.Confidence
	if conf == nil {
		conf = map[domain.ComponentKind]float64{}
	}
	c, err := json.Marshal(conf)
	if err != nil {
		return geocodeRow{}, fmt.Errorf("encode confidence: %w", err)
	}
	return geocodeRow{
		Key:         key,
		Lat:         r.Coords.Lat,
		Lon:         r.Coords.Lon,
		Accuracy:    r.Accuracy.String(),
		Source:      string(r.Source),
		Matched:     string(m),
		Confidence:  string(c),
		Score:       r.Score,
		DisplayName: r.DisplayName,
	}, nil
}

func (row geocodeRow) result() (domain.GeocodeResult, error) {
	tier, err := domain.ParseAccuracyTier(row.Accuracy)
	if err != nil {
		return domain.GeocodeResult{}, err
	}
	r := domain.GeocodeResult{
		Coords:      domain.Coordinates{Lat: row.Lat, Lon: row.Lon},
		Accuracy:    tier,
		Source:      domain.ProviderID(row.Source),
		Score:       row.Score,
		DisplayName: row.DisplayName,
	}
	if err := json.Unmarshal([]byte(row.Matched), &r.Matched); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("decode matched components for %q: %w", row.Key, err)
	}
	if err := json.Unmarshal([]byte(row.Confidence), &r.Confidence); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("decode confidence for %q: %w", row.Key, err)
	}
	return r, nil
}

// uniqueKeys trims and dedupes keys, dropping blanks.
func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}
