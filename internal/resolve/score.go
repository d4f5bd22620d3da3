package resolve

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/planaxis/planaxis/internal/ir"
)

// Decision classifies the outcome of an address resolution.
type Decision string

const (
	// DecisionAuto means the top candidate is trusted without review.
	DecisionAuto Decision = "auto"
	// DecisionAmbiguous means candidates exist but none stands out.
	DecisionAmbiguous Decision = "ambiguous"
	// DecisionNone means no candidate matched at all.
	DecisionNone Decision = "none"
)

const (
	// AutoThreshold is the minimum top score for an automatic match
	// when more than one candidate is in play.
	AutoThreshold = 0.75
	// AmbiguityGap is the minimum lead the top candidate must hold
	// over the runner-up for an automatic match.
	AmbiguityGap = 0.20
)

const (
	firstTokenBonus   = 0.10
	jurisdictionBonus = 0.05
)

// Score rates how well a candidate's formatted address matches the
// input. It blends two signals and keeps the stronger one: token
// overlap coverage with small structural bonuses, and street-name
// similarity. The similarity channel rescues near-miss spellings
// ("newpoet" for "newport") that exact token matching would discard.
func Score(input, candidate, jurisdiction string) float64 {
	in := tokenize(input)
	cand := tokenize(candidate)
	if len(in) == 0 || len(cand) == 0 {
		return 0
	}

	overlap := tokenOverlap(in, cand)
	if in[0] == cand[0] {
		overlap += firstTokenBonus
	}
	if jurisdiction != "" && containsToken(cand, strings.ToLower(jurisdiction)) {
		overlap += jurisdictionBonus
	}

	return clamp01(max64(overlap, streetSimilarity(in, cand)))
}

// tokenOverlap is the fraction of input tokens present in the
// candidate. Coverage is measured against the input so short inputs
// fully contained in a long formatted address still score highly.
func tokenOverlap(in, cand []string) float64 {
	set := make(map[string]struct{}, len(cand))
	for _, t := range cand {
		set[t] = struct{}{}
	}
	matched := 0
	for _, t := range in {
		if _, ok := set[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(in))
}

// streetSimilarity compares the bare street names of both addresses
// using normalized edit distance. It returns 0 when either side has no
// recognizable street segment.
func streetSimilarity(in, cand []string) float64 {
	inStreet, _ := splitStreetLocality(in)
	candStreet, _ := splitStreetLocality(cand)
	a := strings.Join(streetName(inStreet), " ")
	b := strings.Join(streetName(candStreet), " ")
	if a == "" || b == "" {
		return 0
	}
	return similarity(a, b)
}

// similarity is 1 minus the normalized Levenshtein distance.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// rank scores every candidate against the input and sorts descending.
// Ties keep the provider's original order.
func rank(input, jurisdiction string, candidates []ir.SiteCandidate) []ir.SiteCandidate {
	out := make([]ir.SiteCandidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Confidence = Score(input, out[i].FormattedAddress, jurisdiction)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// decide applies the match policy to a ranked candidate list: nothing
// matched means none, a lone candidate is trusted, and otherwise the
// leader must clear the score threshold and hold a clear gap over the
// runner-up.
func decide(ranked []ir.SiteCandidate) Decision {
	switch len(ranked) {
	case 0:
		return DecisionNone
	case 1:
		return DecisionAuto
	}
	top, next := ranked[0].Confidence, ranked[1].Confidence
	if top >= AutoThreshold && top-next >= AmbiguityGap {
		return DecisionAuto
	}
	return DecisionAmbiguous
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
