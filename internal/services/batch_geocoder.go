package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
	"agri-route-service/internal/ports"
)

// LocationResolver is what the batch geocoder needs from a Resolver.
type LocationResolver interface {
	Resolve(ctx context.Context, q domain.LocationQuery) domain.GeocodeResult
	Fallback(ctx context.Context, q domain.LocationQuery, cause error) domain.GeocodeResult
	CommercialConfigured() bool
}

// BatchPolicy bounds concurrency and pacing against provider rate limits.
type BatchPolicy struct {
	Size     int
	Interval time.Duration
}

var (
	CommercialBatchPolicy = BatchPolicy{Size: 3, Interval: 300 * time.Millisecond}
	// One request per second is the public Nominatim policy; 1.1s leaves margin.
	OpenBatchPolicy = BatchPolicy{Size: 1, Interval: 1100 * time.Millisecond}
)

// BatchGeocoder resolves many location groups in paced batches.
type BatchGeocoder struct {
	resolver LocationResolver
	cache    ports.GeocodeCache
	policy   BatchPolicy
}

// NewBatchGeocoder picks the batch policy from the resolver's provider set.
// cache may be nil.
func NewBatchGeocoder(resolver LocationResolver, cache ports.GeocodeCache) *BatchGeocoder {
	policy := OpenBatchPolicy
	if resolver.CommercialConfigured() {
		policy = CommercialBatchPolicy
	}
	return &BatchGeocoder{resolver: resolver, cache: cache, policy: policy}
}

func (b *BatchGeocoder) WithPolicy(p BatchPolicy) *BatchGeocoder {
	if p.Size < 1 {
		p.Size = 1
	}
	b.policy = p
	return b
}

func (b *BatchGeocoder) Policy() BatchPolicy { return b.policy }

// ResolveAll fills Coords and Geocode on every group. Groups whose key is in
// overrides become MANUAL without any provider call. Cancellation is honored
// between batches only; groups resolved before that keep their results and the
// context error is returned.
func (b *BatchGeocoder) ResolveAll(
	ctx context.Context,
	groups []*domain.LocationGroup,
	overrides map[string]domain.Coordinates,
	progress ports.ProgressSink,
) (err error) {
	defer obs.Time(ctx, "geocode.ResolveAll")(&err)

	total := len(groups)
	completed := 0
	fresh := make(map[string]domain.GeocodeResult)

	pending := make([]*domain.LocationGroup, 0, total)
	for _, g := range groups {
		if c, ok := overrides[g.Key]; ok {
			r := domain.ManualResult(c)
			g.SetGeocode(r)
			fresh[g.Key] = r
			completed++
			continue
		}
		pending = append(pending, g)
	}

	pending, hits := b.fromCache(ctx, pending)
	completed += hits

	defer b.writeBack(ctx, fresh)

	if completed > 0 {
		report(progress, completed, total)
	}

	for start := 0; start < len(pending); start += b.policy.Size {
		// The pause is measured from the end of the previous batch, so slow
		// resolutions never eat into it.
		if start > 0 {
			if err := sleepCtx(ctx, b.policy.Interval); err != nil {
				return fmt.Errorf("resolve all: stopped after %d/%d: %w", completed, total, err)
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("resolve all: stopped after %d/%d: %w", completed, total, err)
		}

		batch := pending[start:min(start+b.policy.Size, len(pending))]
		results := make([]domain.GeocodeResult, len(batch))

		var g errgroup.Group
		for i, grp := range batch {
			g.Go(func() error {
				results[i] = b.resolveOne(ctx, grp.Query())
				return nil
			})
		}
		_ = g.Wait()

		for i, grp := range batch {
			grp.SetGeocode(results[i])
			fresh[grp.Key] = results[i]
		}
		completed += len(batch)
		report(progress, completed, total)
	}

	return nil
}

// resolveOne contains a panicking resolution and degrades it to the fallback chain.
func (b *BatchGeocoder) resolveOne(ctx context.Context, q domain.LocationQuery) (res domain.GeocodeResult) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("geocode: key=%q resolution panicked: %v", q.Key(), p)
			res = b.resolver.Fallback(ctx, q, fmt.Errorf("resolution panicked: %v", p))
		}
	}()
	return b.resolver.Resolve(ctx, q)
}

func (b *BatchGeocoder) fromCache(ctx context.Context, pending []*domain.LocationGroup) ([]*domain.LocationGroup, int) {
	if b.cache == nil || len(pending) == 0 {
		return pending, 0
	}

	keys := make([]string, 0, len(pending))
	for _, g := range pending {
		keys = append(keys, g.Key)
	}
	cached, err := b.cache.GetMany(ctx, keys)
	if err != nil {
		log.Printf("geocode cache read failed: %v", err)
		return pending, 0
	}

	misses := pending[:0:0]
	hits := 0
	for _, g := range pending {
		if r, ok := cached[g.Key]; ok {
			g.SetGeocode(r)
			hits++
			continue
		}
		misses = append(misses, g)
	}
	return misses, hits
}

// writeBack stores reliable results only, so degraded coordinates are retried next run.
func (b *BatchGeocoder) writeBack(ctx context.Context, fresh map[string]domain.GeocodeResult) {
	if b.cache == nil || len(fresh) == 0 {
		return
	}
	keep := make(map[string]domain.GeocodeResult, len(fresh))
	for k, r := range fresh {
		if r.Accuracy.Reliable() {
			keep[k] = r
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := b.cache.PutMany(context.WithoutCancel(ctx), keep); err != nil {
		log.Printf("geocode cache write failed: %v", err)
	}
}

func report(p ports.ProgressSink, completed, total int) {
	if p != nil {
		p.Progress(completed, total)
	}
}
