package valuation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// FeaturesCalculator credits optional equipment as a share of the base
// price, scaled down for long feature lists.
type FeaturesCalculator struct {
	Percents       map[Feature]float64
	PenaltyAfter   int
	PenaltyStep    float64
	PenaltyMaximum float64
}

func (c *FeaturesCalculator) Kind() FactorKind { return FactorFeatures }

func (c *FeaturesCalculator) Calculate(_ context.Context, in Input) Factor {
	seen := make(map[Feature]bool)
	var recognised []string
	var sum float64
	for _, raw := range in.Request.Features {
		f := Feature(normalize(raw))
		pct, ok := c.Percents[f]
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		recognised = append(recognised, string(f))
		sum += pct
	}
	if len(recognised) == 0 {
		if len(in.Request.Features) == 0 {
			return neutralFactor(FactorFeatures, "", ProvenanceHeuristic, unspecified)
		}
		return neutralFactor(FactorFeatures, strings.Join(in.Request.Features, ", "), ProvenanceHeuristic,
			"no recognized features; no adjustment")
	}
	sort.Strings(recognised)
	input := strings.Join(recognised, ", ")

	scale := c.penalty(len(recognised))
	pct := sum * (1 - scale)
	rationale := fmt.Sprintf("%d features: %s", len(recognised), percentString(pct))
	if scale > 0 {
		rationale += fmt.Sprintf(" after %s diminishing-returns scale-down", percentString(-scale))
	}
	return additiveFactor(FactorFeatures, input, pct, in.BasePrice, ProvenanceHeuristic, rationale)
}

// penalty is the fraction removed from the feature total.
func (c *FeaturesCalculator) penalty(n int) float64 {
	over := n - c.PenaltyAfter
	if over <= 0 {
		return 0
	}
	return math.Min(float64(over)*c.PenaltyStep, c.PenaltyMaximum)
}
