package valuation

import (
	"context"
	"fmt"
	"strings"
)

// StructuralCalculator deducts for frame damage and mechanical issues.
type StructuralCalculator struct {
	FramePercent      float64
	MechanicalPercent float64
}

func (c *StructuralCalculator) Kind() FactorKind { return FactorStructural }

func (c *StructuralCalculator) Calculate(_ context.Context, in Input) Factor {
	var pct float64
	var flags []string
	if in.Request.FrameDamage {
		pct += c.FramePercent
		flags = append(flags, "frame damage")
	}
	if in.Request.MechanicalIssues {
		pct += c.MechanicalPercent
		flags = append(flags, "mechanical issues")
	}
	if len(flags) == 0 {
		return neutralFactor(FactorStructural, "", ProvenanceHeuristic, "no structural or mechanical issues reported")
	}
	input := strings.Join(flags, ", ")
	return additiveFactor(FactorStructural, input, pct, in.BasePrice, ProvenanceHeuristic,
		fmt.Sprintf("%s: %s", input, percentString(pct)))
}
