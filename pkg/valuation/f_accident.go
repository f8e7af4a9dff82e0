package valuation

import (
	"context"
	"fmt"
	"strconv"
)

// AccidentCalculator applies a step function over the reported accident count.
type AccidentCalculator struct {
	Percents []float64 // indexed by count; last entry covers higher counts
}

func (c *AccidentCalculator) Kind() FactorKind { return FactorAccident }

func (c *AccidentCalculator) Calculate(_ context.Context, in Input) Factor {
	count := in.Request.AccidentCount
	if count < 0 {
		count = 0
	}
	idx := count
	if idx >= len(c.Percents) {
		idx = len(c.Percents) - 1
	}
	pct := c.Percents[idx]

	rationale := "no reported accidents"
	switch {
	case count == 1:
		rationale = fmt.Sprintf("1 reported accident: %s", percentString(pct))
	case count > 1:
		rationale = fmt.Sprintf("%d reported accidents: %s", count, percentString(pct))
	}
	return additiveFactor(FactorAccident, strconv.Itoa(count), pct, in.BasePrice, ProvenanceHeuristic, rationale)
}
