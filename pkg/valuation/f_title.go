package valuation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/autoval/autoval/pkg/reftable"
)

// TitleCalculator resolves the title brand from the title_status table and
// falls back to the built-in brand percents.
type TitleCalculator struct {
	Resolver *Resolver
	Percents map[TitleStatus]float64
	Logger   *zap.Logger
}

func (c *TitleCalculator) Kind() FactorKind { return FactorTitle }

func (c *TitleCalculator) Calculate(ctx context.Context, in Input) Factor {
	raw := in.Request.TitleStatus
	if normalize(raw) == "" {
		return neutralFactor(FactorTitle, "", ProvenanceHeuristic, unspecified)
	}
	status, ok := ParseTitleStatus(raw)
	if !ok {
		return c.tableOnly(ctx, raw, in.BasePrice)
	}

	heuristic := c.Percents[status]
	res := c.Resolver.Resolve(ctx, reftable.TableTitleStatus, string(status), 1+heuristic)
	if res.Ok() {
		pct := res.Value - 1
		return additiveFactor(FactorTitle, string(status), pct, in.BasePrice, ProvenanceLookup,
			fmt.Sprintf("%s title: %s", status, percentString(pct)))
	}
	prov := ProvenanceHeuristic
	if !res.Err.NotFound() {
		prov = ProvenanceUnavailable
	}
	return additiveFactor(FactorTitle, string(status), heuristic, in.BasePrice, prov,
		fmt.Sprintf("%s title: %s (built-in)", status, percentString(heuristic)))
}

// tableOnly prices a brand the built-in list does not know, such as
// "theft recovery", when the title_status table carries a row for it.
func (c *TitleCalculator) tableOnly(ctx context.Context, raw string, base float64) Factor {
	key := normalize(raw)
	res := c.Resolver.Resolve(ctx, reftable.TableTitleStatus, key, 1)
	if !res.Ok() {
		return unrecognized(c.Logger, FactorTitle, raw)
	}
	pct := res.Value - 1
	return additiveFactor(FactorTitle, key, pct, base, ProvenanceLookup,
		fmt.Sprintf("%s title: %s", key, percentString(pct)))
}
