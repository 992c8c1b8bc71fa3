package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"agri-route-service/internal/domain"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int key=%s value=%q using=%d", key, v, fallback)
		return fallback
	}
	return n
}

func GetFloat(key string, fallback float64) float64 {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid float key=%s value=%q using=%g", key, v, fallback)
		return fallback
	}
	return f
}

// GetDuration accepts Go duration strings ("1500ms", "10s").
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration key=%s value=%q using=%s", key, v, fallback)
		return fallback
	}
	return d
}

// Cache backends for geocode results.
const (
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
	CacheNone     = "none"
)

// Represents the process configuration shared by the server, CLI and dbtool.
type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	SeedPath    string
	Depot       domain.Coordinates

	GoogleAPIKey       string
	RegionalURL        string
	RegionalToken      string
	NominatimURL       string
	NominatimUserAgent string

	GeocodeTimeout    time.Duration
	GeocodeRetryDelay time.Duration
	RoutingTimeout    time.Duration
	// Sequence with the offline mock optimizer instead of Google Directions.
	MockRouting bool

	GeocodeCache     string
	RedisAddr        string
	RouteConcurrency int
}

// Default depot: Pune nursery hub.
var defaultDepot = domain.Coordinates{Lat: 18.5204, Lon: 73.8567}

// LoadDotEnv reads .env when present; a missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:        Get("PORT", "8080"),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: Get("DATABASE_URL", ""),
		SeedPath:    Get("SEED_PATH", "data/seeds/orders.json"),
		Depot: domain.Coordinates{
			Lat: GetFloat("DEPOT_LAT", defaultDepot.Lat),
			Lon: GetFloat("DEPOT_LON", defaultDepot.Lon),
		},

		GoogleAPIKey:       Get("GOOGLE_MAPS_API_KEY", ""),
		RegionalURL:        Get("REGIONAL_GEOCODER_URL", ""),
		RegionalToken:      Get("REGIONAL_GEOCODER_TOKEN", ""),
		NominatimURL:       Get("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: Get("NOMINATIM_USER_AGENT", "agri-route-service/1.0"),

		GeocodeTimeout:    GetDuration("GEOCODE_TIMEOUT", 10*time.Second),
		GeocodeRetryDelay: GetDuration("GEOCODE_RETRY_DELAY", time.Second),
		RoutingTimeout:    GetDuration("ROUTING_TIMEOUT", 15*time.Second),
		MockRouting:       strings.EqualFold(Get("ROUTING_MOCK", "false"), "true"),

		GeocodeCache:     strings.ToLower(Get("GEOCODE_CACHE", CacheSQLite)),
		RedisAddr:        Get("REDIS_ADDR", "localhost:6379"),
		RouteConcurrency: GetInt("ROUTE_CONCURRENCY", 4),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.GeocodeCache {
	case CacheSQLite, CacheNone, CacheRedis:
	case CachePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("GEOCODE_CACHE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown GEOCODE_CACHE %q", c.GeocodeCache)
	}
	if !domain.CountryBounds.Contains(c.Depot) {
		return fmt.Errorf("depot %s outside service area", c.Depot)
	}
	if c.RouteConcurrency < 1 {
		return fmt.Errorf("ROUTE_CONCURRENCY must be positive, got %d", c.RouteConcurrency)
	}
	return nil
}
