package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
)

// SQLite backed cache of geocode results keyed by location key.
// Keys are expected to come from domain.LocationKey.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch cached results for the given location keys. Missing keys are simply absent.
func (s *SqliteGeocodeCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeResult{}, nil
	}

	ph := make([]string, 0, len(uniq))
	args := make([]any, 0, len(uniq))
	for _, k := range uniq {
		ph = append(ph, "?")
		args = append(args, k)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
		location_key, lat, lon, accuracy, source, matched, confidence, score, display_name
	FROM geocode_cache
	WHERE location_key IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.GeocodeResult, len(uniq))
	for rows.Next() {
		var row geocodeRow
		if err := rows.Scan(&row.Key, &row.Lat, &row.Lon, &row.Accuracy, &row.Source, &row.Matched, &row.Confidence, &row.Score, &row.DisplayName); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		r, err := row.result()
		if err != nil {
			return nil, fmt.Errorf("get geocode cache: %w", err)
		}
		out[row.Key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store results, replacing any previous entry for the same key.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) (err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO geocode_cache (
		location_key, lat, lon, accuracy, source, matched, confidence, score, display_name, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, r := range results {
		if strings.TrimSpace(key) == "" {
			return errors.New("insert geocode cache: empty location key")
		}
		row, err := toRow(key, r)
		if err != nil {
			return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, row.Key, row.Lat, row.Lon, row.Accuracy, row.Source, row.Matched, row.Confidence, row.Score, row.DisplayName); err != nil {
			return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
