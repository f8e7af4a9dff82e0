package valuation

import (
	"context"
	"fmt"

	"github.com/autoval/autoval/pkg/reftable"
)

// SeasonCalculator applies the seasonal demand curve for the sale month,
// preferring a body-style specific entry.
type SeasonCalculator struct {
	Resolver *Resolver
}

func (c *SeasonCalculator) Kind() FactorKind { return FactorSeason }

func (c *SeasonCalculator) Calculate(ctx context.Context, in Input) Factor {
	if in.Request.SaleDate == nil {
		return neutralFactor(FactorSeason, "", ProvenanceHeuristic, "no sale date")
	}
	month := fmt.Sprintf("%02d", int(in.Request.SaleDate.Month()))
	input := in.Request.SaleDate.Month().String()

	if style := reftable.NormalizeKey(in.Request.BodyStyle); style != "" {
		key := style + ":" + month
		if res := c.Resolver.Resolve(ctx, reftable.TableSeasonalIndex, key, 1); res.Ok() {
			return multiplicativeFactor(FactorSeason, input, res.Value, ProvenanceLookup,
				fmt.Sprintf("%s demand in %s: %s", style, input, percentString(res.Value-1)))
		}
	}

	res := c.Resolver.Resolve(ctx, reftable.TableSeasonalIndex, month, 1)
	if !res.Ok() {
		return neutralFactor(FactorSeason, input, ProvenanceUnavailable,
			fmt.Sprintf("no seasonal index for %s; no adjustment", input))
	}
	return multiplicativeFactor(FactorSeason, input, res.Value, ProvenanceLookup,
		fmt.Sprintf("seasonal demand in %s: %s", input, percentString(res.Value-1)))
}
