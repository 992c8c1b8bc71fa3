package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/db"
	"agri-route-service/internal/ports"
)

var (
	_ ports.OrderRepository = (*SQLOrderRepository)(nil)
	_ ports.OverrideStore   = (*SQLOverrideStore)(nil)
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitSchema(context.Background(), conn, DialectSQLite))
	return conn
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO t (a, b) VALUES (?, ?)`
	assert.Equal(t, q, DialectSQLite.rebind(q))
	assert.Equal(t, `INSERT INTO t (a, b) VALUES ($1, $2)`, DialectPostgres.rebind(q))
}

func TestInitSchema_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, InitSchema(context.Background(), conn, DialectSQLite))
}

func TestSeedAndListOrders(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	path := writeSeed(t, `[
		{"order_id": 2, "farmer_name": "S. Pawar", "village": " Wagholi ", "taluka": "Haveli", "district": "Pune", "state": "Maharashtra", "plant_quantity": 1200},
		{"order_id": 1, "village": "Lonavala", "taluka": "Maval", "district": "Pune", "state": "Maharashtra", "plant_quantity": 800, "payload": {"variety": "G9"}}
	]`)
	require.NoError(t, SeedFromJSON(ctx, conn, DialectSQLite, path))
	// Reseeding replaces rather than duplicating.
	require.NoError(t, SeedFromJSON(ctx, conn, DialectSQLite, path))

	orders, err := NewSQLOrderRepository(conn).ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, 1, orders[0].OrderID)
	assert.Equal(t, "G9", orders[0].Payload["variety"])
	assert.Equal(t, "Wagholi", orders[1].Village)
	assert.Equal(t, 1200, orders[1].PlantQuantity)
	assert.Nil(t, orders[1].Payload)
}

func TestLoadOrdersJSON_Validation(t *testing.T) {
	cases := map[string]string{
		"bad id":      `[{"order_id": 0, "village": "A", "district": "B", "plant_quantity": 1}]`,
		"duplicate":   `[{"order_id": 1, "village": "A", "plant_quantity": 1}, {"order_id": 1, "village": "B", "plant_quantity": 1}]`,
		"negative":    `[{"order_id": 1, "village": "A", "plant_quantity": -5}]`,
		"no location": `[{"order_id": 1, "taluka": "Haveli", "plant_quantity": 5}]`,
		"null item":   `[null]`,
		"not json":    `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadOrdersJSON(writeSeed(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadOrdersJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOverrideStore(t *testing.T) {
	ctx := context.Background()
	store := NewSQLOverrideStore(openTestDB(t), DialectSQLite)
	key := domain.LocationKey("Wagholi", "Haveli", "Pune")

	got, err := store.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.PutOverride(ctx, key, domain.Coordinates{Lat: 18.58, Lon: 73.98}))
	require.NoError(t, store.PutOverride(ctx, key, domain.Coordinates{Lat: 18.5793, Lon: 73.9856}))

	got, err = store.ListOverrides(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{key: {Lat: 18.5793, Lon: 73.9856}}, got)

	assert.Error(t, store.PutOverride(ctx, "", domain.Coordinates{Lat: 1, Lon: 1}))
	assert.Error(t, store.PutOverride(ctx, key, domain.Coordinates{Lat: 91, Lon: 1}))
}
