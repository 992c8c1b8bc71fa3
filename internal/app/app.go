// Package app assembles the adapters behind the ports from a Config. It is shared
// by the HTTP server and the routeplan CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"agri-route-service/internal/adapters/cache"
	"agri-route-service/internal/adapters/geocoding"
	"agri-route-service/internal/adapters/repositories"
	"agri-route-service/internal/adapters/routing"
	"agri-route-service/internal/config"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/db"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/services"
)

// App holds the wired collaborators of one process.
type App struct {
	Orders    ports.OrderRepository
	Overrides ports.OverrideStore
	Planner   services.PlanDeps
	Resolver  *services.Resolver
	Depot     domain.Coordinates

	store   *sql.DB
	dialect repositories.Dialect
	closers []func() error
}

// New opens the stores selected by cfg and wires the geocoding and routing chain.
// Orders and overrides live in Postgres when DATABASE_URL is set and in SQLite otherwise.
// The SQLite schema is created on demand; the Postgres schema is owned by dbtool.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	a := &App{Depot: cfg.Depot}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var sqliteDB, pgDB *sql.DB
	openSQLite := func() (*sql.DB, error) {
		if sqliteDB != nil {
			return sqliteDB, nil
		}
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("app: create db dir: %w", err)
			}
		}
		conn, err := db.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn, repositories.DialectSQLite); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		sqliteDB = conn
		return conn, nil
	}

	if cfg.DatabaseURL != "" {
		pgDB, err = db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pgDB.Close)
		a.store, a.dialect = pgDB, repositories.DialectPostgres
		a.Orders = repositories.NewSQLOrderRepository(pgDB)
		a.Overrides = repositories.NewSQLOverrideStore(pgDB, repositories.DialectPostgres)
	} else {
		conn, err := openSQLite()
		if err != nil {
			return nil, err
		}
		a.store, a.dialect = conn, repositories.DialectSQLite
		a.Orders = repositories.NewSQLOrderRepository(conn)
		a.Overrides = repositories.NewSQLOverrideStore(conn, repositories.DialectSQLite)
	}

	var geocodeCache ports.GeocodeCache
	switch cfg.GeocodeCache {
	case config.CacheSQLite:
		conn, err := openSQLite()
		if err != nil {
			return nil, err
		}
		geocodeCache = cache.NewSqliteGeocodeCache(conn)
	case config.CachePostgres:
		geocodeCache = cache.NewSQLGeocodeCache(pgDB)
	case config.CacheRedis:
		rc, err := cache.NewRedisGeocodeCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, rc.Close)
		geocodeCache = rc
	case config.CacheNone:
	}

	google := geocoding.NewGoogleGeocoder(cfg.GoogleAPIKey, cfg.GeocodeTimeout)
	commercial := services.NewCommercialStrategy(google, cfg.GeocodeTimeout)
	strategies := []ports.LocationStrategy{
		commercial,
		services.NewRegionalStrategy(geocoding.NewRegionalGeocoder(cfg.RegionalURL, cfg.RegionalToken, cfg.GeocodeTimeout), cfg.GeocodeTimeout),
		services.NewOpenStrategy(geocoding.NewNominatimGeocoder(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout), cfg.GeocodeTimeout),
	}
	a.Resolver = services.NewResolver(strategies, commercial, services.ResolverOptions{RetryDelay: cfg.GeocodeRetryDelay})

	var optimizer ports.WaypointOptimizer
	if cfg.MockRouting {
		optimizer = routing.NewMockOptimizer(23)
	} else {
		optimizer = routing.NewGoogleDirections(cfg.GoogleAPIKey, cfg.RoutingTimeout)
	}

	a.Planner = services.PlanDeps{
		Geocoder:  services.NewBatchGeocoder(a.Resolver, geocodeCache),
		Sequencer: services.NewSequencer(optimizer, cfg.RouteConcurrency).WithCallTimeout(cfg.RoutingTimeout),
	}

	log.Printf(
		"app: store=%s geocode_cache=%s commercial=%t regional=%t mock_routing=%t",
		storeName(cfg), cfg.GeocodeCache, a.Resolver.CommercialConfigured(), strategies[1].Configured(), cfg.MockRouting,
	)
	return a, nil
}

func storeName(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite:" + cfg.DBPath
}

// SeedOrders upserts the orders from a JSON file into the order store.
func (a *App) SeedOrders(ctx context.Context, path string) error {
	return repositories.SeedFromJSON(ctx, a.store, a.dialect, path)
}

// Close releases every opened connection in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
