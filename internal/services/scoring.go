package services

import (
	"agri-route-service/internal/domain"
	"agri-route-service/internal/ports"
	"agri-route-service/internal/textmatch"
)

// MatchMethod records how a component was matched.
type MatchMethod string

const (
	MatchNone        MatchMethod = ""
	MatchComponent   MatchMethod = "component"
	MatchAddressText MatchMethod = "address_text"
	MatchWordOverlap MatchMethod = "word_overlap"
)

// MatchScore is the outcome of comparing one expected component with a candidate.
type MatchScore struct {
	Matched    bool
	Confidence float64
	Points     int
	Method     MatchMethod
}

// Rubric holds the points awarded per component. A zero fallback weight disables
// that fallback.
type Rubric struct {
	Village       int
	VillageText   int // village only found inside the formatted address
	Taluka        int
	TalukaPartial int // word overlap >= partialTalukaOverlap
	District      int
	State         int

	VillageTalukaBonus int
	DistrictBonus      int // on top of VillageTalukaBonus
}

var (
	CommercialRubric = Rubric{
		Village:            100,
		VillageText:        80,
		Taluka:             80,
		TalukaPartial:      60,
		District:           40,
		State:              10,
		VillageTalukaBonus: 50,
		DistrictBonus:      30,
	}
	OpenRubric = Rubric{
		Village:  50,
		Taluka:   30,
		District: 40,
		State:    5,
	}
)

const (
	partialTalukaOverlap = 0.7
	addressTextConf      = 0.8
)

var componentOrder = []domain.ComponentKind{
	domain.ComponentVillage,
	domain.ComponentTaluka,
	domain.ComponentDistrict,
	domain.ComponentState,
}

// CandidateScore is a candidate together with its per-component scores.
type CandidateScore struct {
	Candidate  ports.Candidate
	Components map[domain.ComponentKind]MatchScore
	Total      int
}

func (s CandidateScore) Has(kind domain.ComponentKind) bool { return s.Components[kind].Matched }

func (s CandidateScore) Conf(kind domain.ComponentKind) float64 { return s.Components[kind].Confidence }

// Matched lists matched components from most to least specific.
func (s CandidateScore) Matched() []domain.ComponentKind {
	out := make([]domain.ComponentKind, 0, len(componentOrder))
	for _, k := range componentOrder {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// ConfidenceSum adds the confidences of the matched components.
func (s CandidateScore) ConfidenceSum() float64 {
	var sum float64
	for _, k := range componentOrder {
		if s.Has(k) {
			sum += s.Conf(k)
		}
	}
	return sum
}

// Complete reports a village + taluka + district agreement.
func (s CandidateScore) Complete() bool {
	return s.Has(domain.ComponentVillage) && s.Has(domain.ComponentTaluka) && s.Has(domain.ComponentDistrict)
}

// Result converts the score into the public result shape.
func (s CandidateScore) Result(tier domain.AccuracyTier, source domain.ProviderID) domain.GeocodeResult {
	conf := make(map[domain.ComponentKind]float64, len(s.Components))
	for _, k := range s.Matched() {
		conf[k] = s.Conf(k)
	}
	return domain.GeocodeResult{
		Coords:      s.Candidate.Coords,
		Accuracy:    tier,
		Source:      source,
		Matched:     s.Matched(),
		Confidence:  conf,
		Score:       s.Total,
		DisplayName: s.Candidate.FormattedAddress,
	}
}

// ScoreCandidate compares q against c under rubric. Village and taluka use strict
// matching; district and state are lenient since spellings drift more at those levels.
func ScoreCandidate(q domain.LocationQuery, c ports.Candidate, rubric Rubric) CandidateScore {
	s := CandidateScore{
		Candidate:  c,
		Components: make(map[domain.ComponentKind]MatchScore, len(componentOrder)),
	}

	if q.Village != "" {
		ms := bestComponentMatch(q.Village, c.Components[domain.ComponentVillage], true, rubric.Village)
		if !ms.Matched && rubric.VillageText > 0 && textmatch.ContainsPhrase(c.FormattedAddress, q.Village) {
			ms = MatchScore{Matched: true, Confidence: addressTextConf, Points: rubric.VillageText, Method: MatchAddressText}
		}
		s.Components[domain.ComponentVillage] = ms
	}

	if q.Taluka != "" {
		ms := bestComponentMatch(q.Taluka, c.Components[domain.ComponentTaluka], true, rubric.Taluka)
		if !ms.Matched && rubric.TalukaPartial > 0 {
			overlap := 0.0
			for _, name := range c.Components[domain.ComponentTaluka] {
				overlap = max(overlap, textmatch.WordOverlap(q.Taluka, name))
			}
			overlap = max(overlap, textmatch.WordOverlap(q.Taluka, c.FormattedAddress))
			if overlap >= partialTalukaOverlap {
				ms = MatchScore{Matched: true, Confidence: overlap, Points: rubric.TalukaPartial, Method: MatchWordOverlap}
			}
		}
		s.Components[domain.ComponentTaluka] = ms
	}

	if q.District != "" {
		s.Components[domain.ComponentDistrict] = bestComponentMatch(q.District, c.Components[domain.ComponentDistrict], false, rubric.District)
	}
	if q.State != "" {
		s.Components[domain.ComponentState] = bestComponentMatch(q.State, c.Components[domain.ComponentState], false, rubric.State)
	}

	for _, ms := range s.Components {
		s.Total += ms.Points
	}
	if s.Has(domain.ComponentVillage) && s.Has(domain.ComponentTaluka) {
		s.Total += rubric.VillageTalukaBonus
		if s.Has(domain.ComponentDistrict) {
			s.Total += rubric.DistrictBonus
		}
	}
	return s
}

func bestComponentMatch(expected string, names []string, strict bool, points int) MatchScore {
	var best MatchScore
	for _, name := range names {
		ok, conf := textmatch.Matches(expected, name, strict)
		if ok && conf > best.Confidence {
			best = MatchScore{Matched: true, Confidence: conf, Points: points, Method: MatchComponent}
		}
	}
	return best
}

// inCountry drops candidates that fall outside the service country.
func inCountry(c ports.Candidate) bool {
	if c.CountryCode != "" && c.CountryCode != "IN" {
		return false
	}
	return domain.CountryBounds.Contains(c.Coords)
}

// commercialAccepts applies the acceptance ladder for commercial candidates.
func commercialAccepts(s CandidateScore) bool {
	v, t, d := s.Has(domain.ComponentVillage), s.Has(domain.ComponentTaluka), s.Has(domain.ComponentDistrict)
	vc, tc := s.Conf(domain.ComponentVillage), s.Conf(domain.ComponentTaluka)

	switch {
	case v && t && d:
		return true
	case v && t && min(vc, tc) >= 0.70:
		return true
	case v && d && vc >= 0.8 && s.Total >= 140:
		return true
	case t && d && !v && tc >= 0.7 && s.Total >= 110:
		return true
	case v && vc >= 0.9 && s.Total >= 100:
		return true
	}
	return false
}

// commercialTier maps a commercial candidate to an accuracy tier.
func commercialTier(s CandidateScore) domain.AccuracyTier {
	v, t, d := s.Has(domain.ComponentVillage), s.Has(domain.ComponentTaluka), s.Has(domain.ComponentDistrict)
	vc, tc := s.Conf(domain.ComponentVillage), s.Conf(domain.ComponentTaluka)

	switch {
	case v && t:
		return domain.AccuracyHigh
	case v && d && vc >= 0.8:
		return domain.AccuracyHigh
	case v && vc >= 0.9:
		return domain.AccuracyMedium
	case t && d && tc >= 0.7:
		return domain.AccuracyMedium
	case v:
		return domain.AccuracyMedium
	}
	return domain.AccuracyLow
}

// betterCommercial orders accepted candidates: complete matches, then summed
// confidence, then raw score.
func betterCommercial(a, b CandidateScore) bool {
	if a.Complete() != b.Complete() {
		return a.Complete()
	}
	if ca, cb := a.ConfidenceSum(), b.ConfidenceSum(); ca != cb {
		return ca > cb
	}
	return a.Total > b.Total
}

// selectCommercial returns the best accepted candidate. Earlier candidates win ties.
func selectCommercial(scored []CandidateScore) (CandidateScore, domain.AccuracyTier, bool) {
	var best CandidateScore
	found := false
	for _, s := range scored {
		if !commercialAccepts(s) {
			continue
		}
		if !found || betterCommercial(s, best) {
			best, found = s, true
		}
	}
	if !found {
		return CandidateScore{}, domain.AccuracyError, false
	}
	return best, commercialTier(best), true
}

// selectOpen prefers a village match, else the best district + taluka match with
// score >= 40.
func selectOpen(scored []CandidateScore) (CandidateScore, domain.AccuracyTier, bool) {
	var best CandidateScore
	found := false
	for _, s := range scored {
		if s.Has(domain.ComponentVillage) && (!found || s.Total > best.Total) {
			best, found = s, true
		}
	}
	if !found {
		for _, s := range scored {
			if s.Has(domain.ComponentDistrict) && s.Has(domain.ComponentTaluka) && s.Total >= 40 && (!found || s.Total > best.Total) {
				best, found = s, true
			}
		}
	}
	if !found {
		return CandidateScore{}, domain.AccuracyError, false
	}
	return best, openTier(best), true
}

func openTier(s CandidateScore) domain.AccuracyTier {
	switch {
	case s.Has(domain.ComponentVillage) && s.Has(domain.ComponentDistrict):
		return domain.AccuracyHigh
	case s.Has(domain.ComponentDistrict) && s.Has(domain.ComponentTaluka) && s.Total >= 70:
		return domain.AccuracyMedium
	case s.Total >= 40:
		return domain.AccuracyMedium
	}
	return domain.AccuracyLow
}
