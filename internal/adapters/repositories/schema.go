package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"agri-route-service/internal/domain"
)

// Dialect selects the SQL flavor for statements that differ between SQLite and Postgres.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (d Dialect) rebind(q string) string {
	if d != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		farmer_name TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL,
		taluka TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		plant_quantity INTEGER NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}'
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		location_key TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		accuracy TEXT NOT NULL,
		source TEXT NOT NULL,
		matched TEXT NOT NULL DEFAULT '[]',
		confidence TEXT NOT NULL DEFAULT '{}',
		score INTEGER NOT NULL DEFAULT 0,
		display_name TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS location_overrides (
		location_key TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_orders_location
	ON orders(district, taluka, village);
	`,
}

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS orders (
		order_id BIGINT PRIMARY KEY,
		farmer_name TEXT NOT NULL DEFAULT '',
		village TEXT NOT NULL,
		taluka TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		plant_quantity INTEGER NOT NULL CHECK (plant_quantity >= 0),
		payload TEXT NOT NULL DEFAULT '{}'
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		location_key TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		accuracy TEXT NOT NULL,
		source TEXT NOT NULL,
		matched TEXT NOT NULL DEFAULT '[]',
		confidence TEXT NOT NULL DEFAULT '{}',
		score INTEGER NOT NULL DEFAULT 0,
		display_name TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS location_overrides (
		location_key TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_orders_location
	ON orders(district, taluka, village);
	`,
}

// Initialize the database schema for the given dialect.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := sqliteSchema
	if dialect == DialectPostgres {
		statements = postgresSchema
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// LoadOrdersJSON reads and validates a JSON array of orders.
func LoadOrdersJSON(path string) ([]*domain.Order, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load orders: read %q: %w", path, err)
	}

	var orders []*domain.Order
	if err := json.Unmarshal(bytes, &orders); err != nil {
		return nil, fmt.Errorf("load orders: parse json: %w", err)
	}

	seen := map[int]struct{}{}
	for i, o := range orders {
		if o == nil {
			return nil, fmt.Errorf("load orders: item at index %d is null", i+1)
		}
		if o.OrderID <= 0 {
			return nil, fmt.Errorf("load orders: invalid order_id at index %d: %d", i+1, o.OrderID)
		}
		if _, dup := seen[o.OrderID]; dup {
			return nil, fmt.Errorf("load orders: duplicate order_id %d", o.OrderID)
		}
		seen[o.OrderID] = struct{}{}
		if o.PlantQuantity < 0 {
			return nil, fmt.Errorf("load orders: order_id=%d: negative plant_quantity", o.OrderID)
		}
		if strings.TrimSpace(o.Village) == "" && strings.TrimSpace(o.District) == "" {
			return nil, fmt.Errorf("load orders: order_id=%d: village or district is required", o.OrderID)
		}
	}
	return orders, nil
}

// Populate the orders table from a JSON file. Existing orders with the same id are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, dialect Dialect, jsonPath string) error {
	if db == nil {
		return errors.New("seed orders: DB is nil")
	}

	orders, err := LoadOrdersJSON(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := dialect.rebind(`
	INSERT INTO orders (
		order_id, farmer_name, village, taluka, district, state, plant_quantity, payload
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (order_id) DO UPDATE
	SET farmer_name = excluded.farmer_name,
		village = excluded.village,
		taluka = excluded.taluka,
		district = excluded.district,
		state = excluded.state,
		plant_quantity = excluded.plant_quantity,
		payload = excluded.payload;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("seed orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		payload := "{}"
		if len(o.Payload) > 0 {
			b, err := json.Marshal(o.Payload)
			if err != nil {
				return fmt.Errorf("seed orders: encode payload order_id=%d: %w", o.OrderID, err)
			}
			payload = string(b)
		}
		if _, err := stmt.ExecContext(ctx,
			o.OrderID,
			strings.TrimSpace(o.FarmerName),
			strings.TrimSpace(o.Village),
			strings.TrimSpace(o.Taluka),
			strings.TrimSpace(o.District),
			strings.TrimSpace(o.State),
			o.PlantQuantity,
			payload,
		); err != nil {
			return fmt.Errorf("seed orders: insert order_id=%d: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
