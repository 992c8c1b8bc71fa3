package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agri-route-service/internal/domain"
)

// SQLOverrideStore persists manual coordinate corrections per location key.
type SQLOverrideStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLOverrideStore(db *sql.DB, dialect Dialect) *SQLOverrideStore {
	return &SQLOverrideStore{DB: db, Dialect: dialect}
}

// Return every stored override keyed by location key.
func (s *SQLOverrideStore) ListOverrides(ctx context.Context) (map[string]domain.Coordinates, error) {
	if s.DB == nil {
		return nil, errors.New("override store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT location_key, lat, lon FROM location_overrides;`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: query location_overrides table: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.Coordinates{}
	for rows.Next() {
		var key string
		var c domain.Coordinates
		if err := rows.Scan(&key, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("list overrides: scan row: %w", err)
		}
		out[key] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overrides: row iteration: %w", err)
	}
	return out, nil
}

// Insert or replace the override for key.
func (s *SQLOverrideStore) PutOverride(ctx context.Context, key string, c domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("override store: DB is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("put override: empty location key")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("put override key=%q: %w", key, err)
	}

	query := s.Dialect.rebind(`
	INSERT INTO location_overrides (location_key, lat, lon)
	VALUES (?, ?, ?)
	ON CONFLICT (location_key) DO UPDATE
	SET lat = excluded.lat,
		lon = excluded.lon,
		updated_at = CURRENT_TIMESTAMP;
	`)
	if _, err := s.DB.ExecContext(ctx, query, key, c.Lat, c.Lon); err != nil {
		return fmt.Errorf("put override key=%q: %w", key, err)
	}
	return nil
}
