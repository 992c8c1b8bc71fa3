package ports

import (
	"context"
	"errors"

	"agri-route-service/internal/domain"
)

var (
	// ErrProviderUnavailable marks a provider that is unconfigured, unreachable or timed out.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrNoAcceptableMatch marks a provider that answered but with no candidate good enough.
	ErrNoAcceptableMatch = errors.New("no acceptable geocoding match")
)

// Candidate is one raw geocoding hit, with the administrative names the provider
// reported for each level. Several names per level are allowed because providers
// spread a village across locality, sublocality and similar fields.
type Candidate struct {
	Coords           domain.Coordinates
	FormattedAddress string
	CountryCode      string
	Components       map[domain.ComponentKind][]string
}

// Contract for a free-text geocoding search restricted to the service country.
type CandidateSearcher interface {
	// Report whether the provider has the credentials it needs.
	Configured() bool
	// Return every candidate the provider has for the query text.
	Search(ctx context.Context, text string) ([]Candidate, error)
}

// Contract for a provider that answers a structured location with a single coordinate.
type PointLocator interface {
	Configured() bool
	Locate(ctx context.Context, q domain.LocationQuery) (domain.Coordinates, error)
}

// LocationStrategy is one step of the resolver chain. Strategies are tried in order
// until one returns an accepted result. Errors wrap ErrProviderUnavailable or
// ErrNoAcceptableMatch for expected fallthrough; anything else is unexpected.
type LocationStrategy interface {
	Name() domain.ProviderID
	Configured() bool
	Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error)
}

// Caller-side cache of geocode results keyed by location key.
type GeocodeCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.GeocodeResult, error)
	PutMany(ctx context.Context, results map[string]domain.GeocodeResult) error
}

// ProgressSink receives incremental geocoding progress.
type ProgressSink interface {
	Progress(completed, total int)
}

// ProgressFunc adapts a plain function to ProgressSink.
type ProgressFunc func(completed, total int)

func (f ProgressFunc) Progress(completed, total int) { f(completed, total) }
