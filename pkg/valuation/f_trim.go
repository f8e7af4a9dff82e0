package valuation

import (
	"context"
	"fmt"
)

// TrimCalculator applies a (make, model, trim) premium.
type TrimCalculator struct {
	Percents map[TrimKey]float64
}

func (c *TrimCalculator) Kind() FactorKind { return FactorTrim }

func (c *TrimCalculator) Calculate(_ context.Context, in Input) Factor {
	req := in.Request
	if normalize(req.Trim) == "" {
		return neutralFactor(FactorTrim, "", ProvenanceHeuristic, unspecified)
	}
	key := newTrimKey(req.Make, req.Model, req.Trim)
	pct, ok := c.Percents[key]
	if !ok {
		return neutralFactor(FactorTrim, key.Trim, ProvenanceHeuristic, "trim not in premium table; no adjustment")
	}
	return additiveFactor(FactorTrim, key.Trim, pct, in.BasePrice, ProvenanceHeuristic,
		fmt.Sprintf("%s %s %s trim: %s", req.Make, req.Model, req.Trim, percentString(pct)))
}
