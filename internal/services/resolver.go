package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
)

// DistrictLocator finds the center of a district. The commercial strategy
// implements it.
type DistrictLocator interface {
	Configured() bool
	LocateDistrict(ctx context.Context, district, state string) (domain.Coordinates, error)
}

type ResolverOptions struct {
	// Linear backoff unit between chain attempts.
	RetryDelay time.Duration
	// Number of passes over the strategy chain, including the first.
	Attempts int
}

// Resolver turns a location query into a GeocodeResult by walking an ordered
// list of strategies, then degrading to a district center and finally to the
// regional default. It never returns an error; failures lower the accuracy tier.
type Resolver struct {
	strategies []ports.LocationStrategy
	district   DistrictLocator
	retryDelay time.Duration
	attempts   int
}

func NewResolver(strategies []ports.LocationStrategy, district DistrictLocator, opts ResolverOptions) *Resolver {
	if opts.Attempts < 1 {
		opts.Attempts = 2
	}
	return &Resolver{
		strategies: strategies,
		district:   district,
		retryDelay: opts.RetryDelay,
		attempts:   opts.Attempts,
	}
}

// CommercialConfigured reports whether a paid provider is in the chain and usable.
func (r *Resolver) CommercialConfigured() bool {
	for _, s := range r.strategies {
		if s.Name() == domain.ProviderCommercial && s.Configured() {
			return true
		}
	}
	return false
}

func (r *Resolver) Resolve(ctx context.Context, q domain.LocationQuery) domain.GeocodeResult {
	var failure error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, time.Duration(attempt-1)*r.retryDelay); err != nil {
				break
			}
		}

		res, err := r.runChain(ctx, q)
		if res != nil {
			return *res
		}
		if err != nil && failure == nil {
			failure = err
		}
	}

	return r.Fallback(ctx, q, failure)
}

// runChain returns the first accepted result, or the first unexpected error seen.
func (r *Resolver) runChain(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	var unexpected error
	for _, s := range r.strategies {
		if !s.Configured() {
			continue
		}
		res, err := r.try(ctx, s, q)
		if err == nil && res != nil {
			log.Printf("geocode: key=%q source=%s tier=%s score=%d", q.Key(), res.Source, res.Accuracy, res.Score)
			return res, nil
		}

		switch {
		case errors.Is(err, ports.ErrProviderUnavailable), errors.Is(err, ports.ErrNoAcceptableMatch):
			log.Printf("geocode: key=%q provider=%s fallthrough err=%v", q.Key(), s.Name(), err)
		default:
			log.Printf("geocode: key=%q provider=%s failed err=%v", q.Key(), s.Name(), err)
			if unexpected == nil {
				unexpected = err
			}
		}
	}
	return nil, unexpected
}

func (r *Resolver) try(ctx context.Context, s ports.LocationStrategy, q domain.LocationQuery) (res *domain.GeocodeResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("%s panicked: %v", s.Name(), p)
		}
	}()
	res, err = s.Resolve(ctx, q)
	if err == nil && res == nil {
		err = fmt.Errorf("%s returned no result", s.Name())
	}
	return res, err
}

// Fallback substitutes a coordinate when no strategy produced a result: the
// district center when the commercial provider can find it, else the regional
// default. cause marks the default as ERROR rather than FALLBACK.
func (r *Resolver) Fallback(ctx context.Context, q domain.LocationQuery, cause error) domain.GeocodeResult {
	if c, ok := r.districtCenter(ctx, q); ok {
		log.Printf("geocode: key=%q source=%s tier=%s", q.Key(), domain.ProviderDistrict, domain.AccuracyFallback)
		return domain.GeocodeResult{
			Coords:      c,
			Accuracy:    domain.AccuracyFallback,
			Source:      domain.ProviderDistrict,
			Confidence:  map[domain.ComponentKind]float64{},
			DisplayName: joinNonEmpty(q.District, q.State),
		}
	}

	tier := domain.AccuracyFallback
	if cause != nil {
		tier = domain.AccuracyError
	}
	log.Printf("geocode: key=%q source=%s tier=%s cause=%v", q.Key(), domain.ProviderDefault, tier, cause)
	return domain.GeocodeResult{
		Coords:     domain.DefaultRegionCenter,
		Accuracy:   tier,
		Source:     domain.ProviderDefault,
		Confidence: map[domain.ComponentKind]float64{},
	}
}

func (r *Resolver) districtCenter(ctx context.Context, q domain.LocationQuery) (c domain.Coordinates, ok bool) {
	if r.district == nil || !r.district.Configured() || q.District == "" {
		return domain.Coordinates{}, false
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("geocode: key=%q district lookup panicked: %v", q.Key(), p)
			c, ok = domain.Coordinates{}, false
		}
	}()

	c, err := r.district.LocateDistrict(ctx, q.District, q.State)
	if err != nil {
		log.Printf("geocode: key=%q district lookup err=%v", q.Key(), err)
		return domain.Coordinates{}, false
	}
	return c, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
