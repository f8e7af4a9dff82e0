package valuation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/autoval/autoval/pkg/reftable"
)

// RegionCalculator resolves the regional demand multiplier. A live market
// figure supersedes the static table; otherwise the table is consulted by
// exact zip, then 3-digit prefix average, then 1-digit region average.
type RegionCalculator struct {
	Resolver *Resolver
	Demand   DemandSource // optional
	Timeout  time.Duration
	Logger   *zap.Logger
}

func (c *RegionCalculator) Kind() FactorKind { return FactorRegion }

func (c *RegionCalculator) Calculate(ctx context.Context, in Input) Factor {
	zip := zip5(in.Request.ZipCode)
	if zip == "" {
		if raw := strings.TrimSpace(in.Request.ZipCode); raw != "" {
			return unrecognized(c.Logger, FactorRegion, raw)
		}
		return c.byRegion(ctx, in.Request.Region)
	}

	if f, ok := c.fromMarket(ctx, zip); ok {
		return f
	}

	res := c.Resolver.Resolve(ctx, reftable.TableRegionalDemand, zip, 1)
	if res.Ok() {
		return multiplicativeFactor(FactorRegion, zip, res.Value, ProvenanceLookup,
			fmt.Sprintf("zip %s demand: %s", zip, percentString(res.Value-1)))
	}
	for _, prefix := range []string{zip[:3], zip[:1]} {
		avg := c.Resolver.ResolveAverage(ctx, reftable.TableRegionalDemand, prefix, 1)
		if avg.Ok() {
			return multiplicativeFactor(FactorRegion, zip, avg.Value, ProvenanceHeuristic,
				fmt.Sprintf("zip area %s* average demand: %s", prefix, percentString(avg.Value-1)))
		}
	}
	return neutralFactor(FactorRegion, zip, ProvenanceUnavailable, fmt.Sprintf("no demand data for zip %s; no adjustment", zip))
}

func (c *RegionCalculator) byRegion(ctx context.Context, region string) Factor {
	region = normalize(region)
	if region == "" {
		return neutralFactor(FactorRegion, "", ProvenanceHeuristic, unspecified)
	}
	res := c.Resolver.Resolve(ctx, reftable.TableRegionalDemand, "region:"+region, 1)
	if !res.Ok() {
		return neutralFactor(FactorRegion, region, ProvenanceUnavailable, fmt.Sprintf("no demand data for region %s; no adjustment", region))
	}
	return multiplicativeFactor(FactorRegion, region, res.Value, ProvenanceLookup,
		fmt.Sprintf("region %s demand: %s", region, percentString(res.Value-1)))
}

func (c *RegionCalculator) fromMarket(ctx context.Context, zip string) (Factor, bool) {
	if c.Demand == nil {
		return Factor{}, false
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().CollaboratorTimeout
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, ok, err := c.Demand.RegionalDemand(mctx, zip)
	switch {
	case err != nil:
		c.logger().Warn("market demand unavailable, using reference table",
			zap.String("zip", zip), zap.Error(fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)))
		return Factor{}, false
	case !ok:
		return Factor{}, false
	case m <= 0 || math.IsNaN(m) || math.IsInf(m, 0):
		c.logger().Warn("market demand returned invalid multiplier, ignoring",
			zap.String("zip", zip), zap.Float64("multiplier", m))
		return Factor{}, false
	}
	return multiplicativeFactor(FactorRegion, zip, m, ProvenanceLookup,
		fmt.Sprintf("live market demand for %s: %s", zip, percentString(m-1))), true
}

func (c *RegionCalculator) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// zip5 returns the first five digits of a US zip code, or "" when the value
// does not start with five digits.
func zip5(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) < 5 {
		return ""
	}
	for _, r := range raw[:5] {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return raw[:5]
}
