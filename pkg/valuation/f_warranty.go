package valuation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/autoval/autoval/pkg/reftable"
)

// WarrantyCalculator resolves remaining coverage. A category missing from
// the table falls back to its built-in bump.
type WarrantyCalculator struct {
	Resolver *Resolver
	Bumps    map[WarrantyCategory]float64
	Logger   *zap.Logger
}

func (c *WarrantyCalculator) Kind() FactorKind { return FactorWarranty }

func (c *WarrantyCalculator) Calculate(ctx context.Context, in Input) Factor {
	raw := in.Request.WarrantyStatus
	if normalize(raw) == "" {
		return neutralFactor(FactorWarranty, "", ProvenanceHeuristic, unspecified)
	}
	cat, ok := ParseWarranty(raw)
	if !ok {
		return unrecognized(c.Logger, FactorWarranty, raw)
	}

	bump, ok := c.Bumps[cat]
	if !ok {
		bump = 1
	}
	res := c.Resolver.Resolve(ctx, reftable.TableWarranty, string(cat), bump)
	if res.Ok() {
		return multiplicativeFactor(FactorWarranty, string(cat), res.Value, ProvenanceLookup,
			fmt.Sprintf("%s warranty: %s", cat, percentString(res.Value-1)))
	}
	prov := ProvenanceHeuristic
	if !res.Err.NotFound() {
		prov = ProvenanceUnavailable
	}
	return multiplicativeFactor(FactorWarranty, string(cat), bump, prov,
		fmt.Sprintf("%s warranty: %s (built-in)", cat, percentString(bump-1)))
}
