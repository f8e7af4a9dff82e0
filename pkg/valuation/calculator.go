package valuation

import (
	"context"
	"math"
	"strconv"

	"go.uber.org/zap"
)

// Calculator is implemented by every adjustment factor.
type Calculator interface {
	// Kind returns the factor this calculator produces.
	Kind() FactorKind
	// Calculate computes the factor for one request. It never fails:
	// unknown or missing inputs produce a neutral factor.
	Calculate(ctx context.Context, in Input) Factor
}

// Input is what a calculator sees: the validated request and the resolved
// base price.
type Input struct {
	Request   *Request
	BasePrice float64
}

const unspecified = "unspecified"

func additiveFactor(kind FactorKind, input string, pct, base float64, prov Provenance, rationale string) Factor {
	return Factor{
		Kind:       kind,
		Mode:       ModeAdditive,
		Input:      input,
		Multiplier: 1 + pct,
		Percent:    roundTo(pct*100, 2),
		Delta:      roundTo(base*pct, 2),
		Provenance: prov,
		Rationale:  rationale,
	}
}

func multiplicativeFactor(kind FactorKind, input string, multiplier float64, prov Provenance, rationale string) Factor {
	return Factor{
		Kind:       kind,
		Mode:       ModeMultiplicative,
		Input:      input,
		Multiplier: multiplier,
		Percent:    roundTo((multiplier-1)*100, 2),
		Provenance: prov,
		Rationale:  rationale,
	}
}

func neutralFactor(kind FactorKind, input string, prov Provenance, rationale string) Factor {
	if kind.Mode() == ModeMultiplicative {
		return multiplicativeFactor(kind, input, 1, prov, rationale)
	}
	return additiveFactor(kind, input, 0, 0, prov, rationale)
}

func unrecognized(logger *zap.Logger, kind FactorKind, value string) Factor {
	if logger == nil {
		logger = zap.NewNop()
	}
	err := &UnrecognizedValueError{Factor: kind, Value: value}
	logger.Warn("unrecognized attribute value, using neutral adjustment",
		zap.String("factor", string(kind)), zap.String("value", value), zap.Error(err))
	return neutralFactor(kind, value, ProvenanceUnavailable, "unrecognized value; no adjustment")
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

// percentString renders a fraction as a signed percent: 0.015 -> "+1.5%".
func percentString(pct float64) string {
	p := roundTo(pct*100, 2)
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if p > 0 {
		s = "+" + s
	}
	return s + "%"
}
