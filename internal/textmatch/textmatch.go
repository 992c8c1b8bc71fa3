// Package textmatch scores how well two free-text address components agree.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	strictThreshold     = 0.85
	lenientThreshold    = 0.70
	containmentMinRatio = 0.8
)

// Generic administrative-unit words and their common abbreviations. They carry no
// identity ("Shirur Taluka" and "Shirur" are the same place).
var adminWords = map[string]struct{}{
	"village": {}, "vill": {}, "vil": {}, "gaon": {}, "gram": {},
	"taluka": {}, "taluk": {}, "tal": {}, "tehsil": {}, "teh": {}, "tq": {}, "mandal": {},
	"district": {}, "dist": {}, "dt": {}, "zilla": {}, "jilha": {},
	"state": {},
}

// Normalize folds accents, lowercases, strips punctuation, collapses whitespace and
// drops administrative-unit words.
func Normalize(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(s),
	)
	if err != nil {
		folded = strings.ToLower(s)
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if _, ok := adminWords[w]; ok {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Levenshtein is the classic edit distance with unit insertion, deletion and substitution cost.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns 1 - editDistance/maxLen over the normalized strings, in [0,1].
// Two empty inputs are identical, and so are inputs equal up to case and outer
// whitespace even when they normalize to nothing ("Taluka", "Dist."). Otherwise a
// side that normalizes to nothing scores 0.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	na, nb := Normalize(a), Normalize(b)
	if (na == "" || nb == "") && sameRaw(a, b) {
		return 1
	}
	return normalizedSimilarity(na, nb)
}

func sameRaw(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func normalizedSimilarity(na, nb string) float64 {
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	maxLen := max(len([]rune(na)), len([]rune(nb)))
	return 1 - float64(Levenshtein(na, nb))/float64(maxLen)
}

// Matches decides whether two components name the same place and with what confidence.
// Exact normalized equality always matches with confidence 1. Under strict mode, the
// shorter string contained in the longer one matches when their length ratio is at
// least 0.8. Otherwise similarity must reach 0.85 (strict) or 0.70 (lenient).
func Matches(a, b string, strict bool) (bool, float64) {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false, 0
	}
	if na == nb {
		return true, 1
	}

	sim := normalizedSimilarity(na, nb)

	if strict {
		shorter, longer := na, nb
		if len([]rune(shorter)) > len([]rune(longer)) {
			shorter, longer = longer, shorter
		}
		ratio := float64(len([]rune(shorter))) / float64(len([]rune(longer)))
		if ratio >= containmentMinRatio && strings.Contains(longer, shorter) {
			return true, max(sim, ratio)
		}
		return sim >= strictThreshold, sim
	}

	return sim >= lenientThreshold, sim
}

// WordOverlap is the fraction of the expected words that appear in candidate.
func WordOverlap(expected, candidate string) float64 {
	want := strings.Fields(Normalize(expected))
	if len(want) == 0 {
		return 0
	}

	have := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(candidate)) {
		have[w] = struct{}{}
	}

	hits := 0
	for _, w := range want {
		if _, ok := have[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// ContainsPhrase reports whether the normalized phrase occurs as whole words inside text.
func ContainsPhrase(text, phrase string) bool {
	np := Normalize(phrase)
	if np == "" {
		return false
	}
	return strings.Contains(" "+Normalize(text)+" ", " "+np+" ")
}
