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

// SQLGeocodeCache is the Postgres (pgx) flavor of the geocode cache, shared by
// every service instance pointed at the same database.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

func (s *SQLGeocodeCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.cache.postgres.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeResult{}, nil
	}

	q := `
	SELECT location_key, lat, lon, accuracy, source, matched, confidence, score, display_name
	FROM geocode_cache
	WHERE location_key = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
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

func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) (err error) {
	defer obs.Time(ctx, "geocode.cache.postgres.PutMany")(&err)

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
	INSERT INTO geocode_cache (location_key, lat, lon, accuracy, source, matched, confidence, score, display_name)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (location_key) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		accuracy = EXCLUDED.accuracy,
		source = EXCLUDED.source,
		matched = EXCLUDED.matched,
		confidence = EXCLUDED.confidence,
		score = EXCLUDED.score,
		display_name = EXCLUDED.display_name,
		updated_at = now();
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
