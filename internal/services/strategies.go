package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/textmatch"
)

// CommercialStrategy resolves with a paid geocoder, trying several phrasings of
// the address and keeping the best accepted candidate across all of them.
type CommercialStrategy struct {
	searcher ports.CandidateSearcher
	timeout  time.Duration
}

func NewCommercialStrategy(searcher ports.CandidateSearcher, timeout time.Duration) *CommercialStrategy {
	return &CommercialStrategy{searcher: searcher, timeout: timeout}
}

func (s *CommercialStrategy) Name() domain.ProviderID { return domain.ProviderCommercial }

func (s *CommercialStrategy) Configured() bool { return s.searcher != nil && s.searcher.Configured() }

func (s *CommercialStrategy) Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	var (
		scored   []CandidateScore
		lastErr  error
		answered bool
	)
	for _, text := range commercialPhrasings(q) {
		cands, err := search(ctx, s.searcher, text, s.timeout)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true
		for _, c := range cands {
			if inCountry(c) {
				scored = append(scored, ScoreCandidate(q, c, CommercialRubric))
			}
		}
	}
	if !answered && lastErr != nil {
		return nil, fmt.Errorf("commercial resolve %q: %w", q.Key(), lastErr)
	}

	best, tier, ok := selectCommercial(scored)
	if !ok {
		return nil, fmt.Errorf("commercial resolve %q: %d candidates: %w", q.Key(), len(scored), ports.ErrNoAcceptableMatch)
	}
	r := best.Result(tier, domain.ProviderCommercial)
	return &r, nil
}

// LocateDistrict returns the center of a district as reported by the commercial geocoder.
func (s *CommercialStrategy) LocateDistrict(ctx context.Context, district, state string) (domain.Coordinates, error) {
	if !s.Configured() {
		return domain.Coordinates{}, fmt.Errorf("locate district: %w", ports.ErrProviderUnavailable)
	}
	text := joinNonEmpty(district+" district", state)
	cands, err := search(ctx, s.searcher, text, s.timeout)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("locate district %q: %w", district, err)
	}

	var first *ports.Candidate
	for i := range cands {
		c := cands[i]
		if !inCountry(c) {
			continue
		}
		for _, name := range c.Components[domain.ComponentDistrict] {
			if ok, _ := textmatch.Matches(district, name, false); ok {
				return c.Coords, nil
			}
		}
		if first == nil {
			first = &c
		}
	}
	if first == nil {
		return domain.Coordinates{}, fmt.Errorf("locate district %q: %w", district, ports.ErrNoAcceptableMatch)
	}
	return first.Coords, nil
}

func commercialPhrasings(q domain.LocationQuery) []string {
	full := joinNonEmpty(q.Village, q.Taluka, q.District, q.State)
	return dedupe(
		full,
		`"`+full+`"`,
		joinNonEmpty(q.Taluka, q.Village, q.District, q.State),
		joinNonEmpty(q.District, q.Village, q.Taluka, q.State),
		joinNonEmpty(q.Village, q.District),
	)
}

// RegionalStrategy asks a government geocoder for a single point.
type RegionalStrategy struct {
	locator ports.PointLocator
	timeout time.Duration
}

func NewRegionalStrategy(locator ports.PointLocator, timeout time.Duration) *RegionalStrategy {
	return &RegionalStrategy{locator: locator, timeout: timeout}
}

func (s *RegionalStrategy) Name() domain.ProviderID { return domain.ProviderRegional }

func (s *RegionalStrategy) Configured() bool { return s.locator != nil && s.locator.Configured() }

func (s *RegionalStrategy) Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.locator.Locate(cctx, q)
	if err != nil {
		return nil, fmt.Errorf("regional resolve %q: %w", q.Key(), timeoutAsUnavailable(err))
	}
	// Swapped or garbage pairs land outside the country.
	if c.Lat == 0 || c.Lon == 0 || !domain.CountryBounds.Contains(c) {
		return nil, fmt.Errorf("regional resolve %q: %s outside service area: %w", q.Key(), c, ports.ErrNoAcceptableMatch)
	}
	return &domain.GeocodeResult{
		Coords:      c,
		Accuracy:    domain.AccuracyHigh,
		Source:      domain.ProviderRegional,
		Confidence:  map[domain.ComponentKind]float64{},
		DisplayName: joinNonEmpty(q.Village, q.Taluka, q.District, q.State),
	}, nil
}

// OpenStrategy resolves with the community geocoder. Phrasings are tried in order
// and the first one that yields a selectable candidate wins.
type OpenStrategy struct {
	searcher ports.CandidateSearcher
	timeout  time.Duration
}

func NewOpenStrategy(searcher ports.CandidateSearcher, timeout time.Duration) *OpenStrategy {
	return &OpenStrategy{searcher: searcher, timeout: timeout}
}

func (s *OpenStrategy) Name() domain.ProviderID { return domain.ProviderOpen }

func (s *OpenStrategy) Configured() bool { return s.searcher != nil && s.searcher.Configured() }

func (s *OpenStrategy) Resolve(ctx context.Context, q domain.LocationQuery) (*domain.GeocodeResult, error) {
	var (
		lastErr  error
		answered bool
	)
	for _, text := range openPhrasings(q) {
		cands, err := search(ctx, s.searcher, text, s.timeout)
		if err != nil {
			lastErr = err
			continue
		}
		answered = true

		scored := make([]CandidateScore, 0, len(cands))
		for _, c := range cands {
			if inCountry(c) {
				scored = append(scored, ScoreCandidate(q, c, OpenRubric))
			}
		}
		if best, tier, ok := selectOpen(scored); ok {
			r := best.Result(tier, domain.ProviderOpen)
			return &r, nil
		}
	}
	if !answered && lastErr != nil {
		return nil, fmt.Errorf("open resolve %q: %w", q.Key(), lastErr)
	}
	return nil, fmt.Errorf("open resolve %q: %w", q.Key(), ports.ErrNoAcceptableMatch)
}

func openPhrasings(q domain.LocationQuery) []string {
	return dedupe(
		joinNonEmpty(q.District, q.Taluka, q.Village, q.State),
		joinNonEmpty(q.Village, q.Taluka, q.District, q.State),
		joinNonEmpty(q.Taluka, q.District, q.State),
	)
}

// search runs one provider call under its own timeout.
func search(ctx context.Context, s ports.CandidateSearcher, text string, timeout time.Duration) ([]ports.Candidate, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cands, err := s.Search(cctx, text)
	if err != nil {
		return nil, timeoutAsUnavailable(err)
	}
	return cands, nil
}

// timeoutAsUnavailable folds deadline errors into the unavailable sentinel so a
// slow provider falls through like an unreachable one.
func timeoutAsUnavailable(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ports.ErrProviderUnavailable) {
		return fmt.Errorf("%w: %w", ports.ErrProviderUnavailable, err)
	}
	return err
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func dedupe(texts ...string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t == "" || t == `""` {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
