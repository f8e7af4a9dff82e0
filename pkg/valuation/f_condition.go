package valuation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ConditionCalculator maps the condition grade to a percent.
type ConditionCalculator struct {
	Percents map[Condition]float64
	Logger   *zap.Logger
}

func (c *ConditionCalculator) Kind() FactorKind { return FactorCondition }

func (c *ConditionCalculator) Calculate(_ context.Context, in Input) Factor {
	raw := in.Request.Condition
	if normalize(raw) == "" {
		return neutralFactor(FactorCondition, "", ProvenanceHeuristic, unspecified)
	}
	cond, ok := ParseCondition(raw)
	if !ok {
		return unrecognized(c.Logger, FactorCondition, raw)
	}
	pct := c.Percents[cond]
	return additiveFactor(FactorCondition, string(cond), pct, in.BasePrice, ProvenanceHeuristic,
		fmt.Sprintf("%s condition: %s", cond, percentString(pct)))
}
