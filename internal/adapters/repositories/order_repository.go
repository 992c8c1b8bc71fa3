package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agri-route-service/internal/domain"
)

// SQL-backed implementation of the OrderRepository port. The query is portable
// across SQLite and Postgres.
type SQLOrderRepository struct{ DB *sql.DB }

func NewSQLOrderRepository(db *sql.DB) *SQLOrderRepository {
	return &SQLOrderRepository{DB: db}
}

// Return all orders stored in the database ordered by id.
func (s *SQLOrderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `
	SELECT
		order_id, farmer_name, village, taluka, district, state, plant_quantity, payload
	FROM orders
	ORDER BY order_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		var o domain.Order
		var payload string
		if err := rows.Scan(&o.OrderID, &o.FarmerName, &o.Village, &o.Taluka, &o.District, &o.State, &o.PlantQuantity, &payload); err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}
		if payload != "" && payload != "{}" {
			if err := json.Unmarshal([]byte(payload), &o.Payload); err != nil {
				return nil, fmt.Errorf("list orders: decode payload order_id=%d: %w", o.OrderID, err)
			}
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}
