package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine composes factor calculators into a valuation. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	opts      Options
	calcs     []Calculator
	prices    PriceReference
	logger    *zap.Logger
	validator *requestValidator
}

// NewEngine creates an engine. opts is copied and validated; each factor
// kind may appear at most once among calcs. prices may be nil, in which
// case every request must carry a base price.
func NewEngine(opts Options, logger *zap.Logger, prices PriceReference, calcs ...Calculator) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[FactorKind]bool)
	for _, k := range MultiplicativeOrder {
		known[k] = true
	}
	for _, k := range AdditiveOrder {
		known[k] = true
	}
	seen := make(map[FactorKind]bool, len(calcs))
	for i, c := range calcs {
		if c == nil {
			return nil, fmt.Errorf("calculator %d is nil", i)
		}
		k := c.Kind()
		if !known[k] {
			return nil, fmt.Errorf("calculator %d: unknown factor kind %q", i, k)
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate calculator for %s", k)
		}
		seen[k] = true
	}
	return &Engine{
		opts:      opts,
		calcs:     append([]Calculator(nil), calcs...),
		prices:    prices,
		logger:    logger,
		validator: newRequestValidator(opts),
	}, nil
}

// Options returns a copy of the engine's settings.
func (e *Engine) Options() Options { return e.opts }

// Value runs every calculator against req and composes the breakdown.
// The only error it returns is *InvalidInputError; lookup and collaborator
// failures degrade to defaults and show up in provenance and confidence.
func (e *Engine) Value(ctx context.Context, req *Request) (*Breakdown, error) {
	if err := e.validator.check(req); err != nil {
		return nil, err
	}
	r := *req // calculators see a private copy
	if r.VIN != "" && !validVIN(r.VIN) {
		e.logger.Warn("ignoring malformed vin", zap.String("vin", r.VIN))
		r.VIN = ""
	}

	base, source, err := e.basePrice(ctx, &r)
	if err != nil {
		return nil, err
	}

	factors := e.calculate(ctx, Input{Request: &r, BasePrice: base})

	b := &Breakdown{
		Vehicle:         Vehicle{Make: r.Make, Model: r.Model, Year: r.Year, Trim: r.Trim},
		BasePrice:       base,
		BasePriceSource: source,
	}

	// Headline price: multiplicative chain in canonical order.
	price := base
	for _, kind := range MultiplicativeOrder {
		f, ok := factors[kind]
		if !ok {
			continue
		}
		after := roundTo(price*f.Multiplier, 2)
		b.Steps = append(b.Steps, Step{
			Factor:      f,
			PriceBefore: price,
			PriceAfter:  after,
			Effect:      roundTo(after-price, 2),
		})
		price = after
	}
	b.PredictedPrice = math.Round(price)

	// Explainability: dollar deltas against the pre-multiplier base.
	var total float64
	for _, kind := range AdditiveOrder {
		f, ok := factors[kind]
		if !ok {
			continue
		}
		b.Explainability.Adjustments = append(b.Explainability.Adjustments, f)
		total += f.Delta
	}
	b.Explainability.TotalDelta = roundTo(total, 2)
	b.Explainability.AdjustedPrice = math.Max(0, math.Round(base+total))

	b.Confidence = EstimateConfidence(e.opts, b.Factors())
	b.ConfidenceLevel = ConfidenceLevel(e.opts, b.Confidence)
	b.PriceRange = PriceRangeFor(e.opts, base, b.PredictedPrice, b.Confidence)

	e.logger.Debug("valuation composed",
		zap.String("make", r.Make), zap.String("model", r.Model), zap.Int("year", r.Year),
		zap.Float64("base_price", base), zap.Float64("predicted_price", b.PredictedPrice),
		zap.Int("confidence", b.Confidence))
	return b, nil
}

// calculate fans out to every calculator. Resolution order does not matter;
// composition happens afterwards in canonical order.
func (e *Engine) calculate(ctx context.Context, in Input) map[FactorKind]Factor {
	results := make([]Factor, len(e.calcs))
	var g errgroup.Group
	for i, c := range e.calcs {
		g.Go(func() error {
			results[i] = c.Calculate(ctx, in)
			return nil
		})
	}
	_ = g.Wait() // calculators never fail

	out := make(map[FactorKind]Factor, len(results))
	for i, f := range results {
		// Kind and mode come from the calculator, not from whatever it returned.
		f.Kind = e.calcs[i].Kind()
		f.Mode = f.Kind.Mode()
		out[f.Kind] = f
	}
	return out
}

func (e *Engine) basePrice(ctx context.Context, req *Request) (float64, string, error) {
	if req.BasePrice > 0 {
		return roundTo(req.BasePrice, 2), BasePriceFromRequest, nil
	}
	if e.prices == nil {
		return 0, "", &InvalidInputError{Field: "base_price", Reason: "is required when no pricing reference is configured"}
	}

	pctx, cancel := context.WithTimeout(ctx, e.opts.CollaboratorTimeout)
	defer cancel()
	v := Vehicle{Make: req.Make, Model: req.Model, Year: req.Year, Trim: req.Trim}
	price, err := e.prices.BasePrice(pctx, v)
	if err == nil && (price <= 0 || math.IsNaN(price) || math.IsInf(price, 0)) {
		err = fmt.Errorf("non-positive price %v", price)
	}
	if err != nil {
		if !errors.Is(err, ErrCollaboratorUnavailable) {
			err = fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)
		}
		e.logger.Warn("pricing reference could not supply a base price",
			zap.String("make", v.Make), zap.String("model", v.Model), zap.Int("year", v.Year), zap.Error(err))
		return 0, "", &InvalidInputError{Field: "base_price", Reason: "not supplied and could not be derived: " + err.Error()}
	}
	return roundTo(price, 2), BasePriceFromReference, nil
}
