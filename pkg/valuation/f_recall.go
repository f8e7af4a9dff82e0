package valuation

import (
	"context"
	"fmt"

	"github.com/autoval/autoval/pkg/reftable"
)

// RecallCalculator discounts vehicles with unresolved recalls.
type RecallCalculator struct {
	Resolver    *Resolver
	OpenDefault float64
}

func (c *RecallCalculator) Kind() FactorKind { return FactorRecall }

func (c *RecallCalculator) Calculate(ctx context.Context, in Input) Factor {
	if in.Request.HasOpenRecall == nil {
		return neutralFactor(FactorRecall, "", ProvenanceHeuristic, unspecified)
	}
	key, fallback := "none", 1.0
	if *in.Request.HasOpenRecall {
		key, fallback = "open", c.OpenDefault
	}
	res := c.Resolver.Resolve(ctx, reftable.TableRecall, key, fallback)
	rationale := fmt.Sprintf("recall status %s: %s", key, percentString(res.Value-1))
	if !res.Ok() {
		rationale += " (default)"
	}
	return multiplicativeFactor(FactorRecall, key, res.Value, res.Provenance, rationale)
}
