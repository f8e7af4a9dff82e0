package valuation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// PhotoCalculator folds the visual-condition score into a small multiplier:
// 1 + (score - 0.5) * Weight.
type PhotoCalculator struct {
	Scorer       PhotoScorer // optional
	Weight       float64
	DefaultScore float64
	Timeout      time.Duration
	Logger       *zap.Logger
}

func (c *PhotoCalculator) Kind() FactorKind { return FactorVisual }

func (c *PhotoCalculator) Calculate(ctx context.Context, in Input) Factor {
	req := in.Request
	if req.PhotoScore != nil {
		return c.factor(clamp01(*req.PhotoScore), ProvenanceLookup, "supplied visual-condition score")
	}
	if len(req.PhotoURLs) == 0 {
		return neutralFactor(FactorVisual, "", ProvenanceHeuristic, unspecified)
	}
	urls := make([]string, 0, len(req.PhotoURLs))
	for _, u := range req.PhotoURLs {
		if validURL(u) {
			urls = append(urls, u)
		}
	}
	if skipped := len(req.PhotoURLs) - len(urls); skipped > 0 {
		c.logger().Warn("skipping malformed photo urls", zap.Int("skipped", skipped), zap.Int("photos", len(urls)))
	}
	if len(urls) == 0 {
		return c.factor(c.DefaultScore, ProvenanceUnavailable, "no usable photo URLs; default score")
	}
	if c.Scorer == nil {
		return c.factor(c.DefaultScore, ProvenanceUnavailable, "photo analysis not configured; default score")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().CollaboratorTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	score, err := c.Scorer.Score(sctx, urls)
	if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
		err = fmt.Errorf("invalid score %v", score)
	}
	if err != nil {
		c.logger().Warn("photo analysis unavailable, using default score",
			zap.Int("photos", len(urls)), zap.Float64("default", c.DefaultScore),
			zap.Error(fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)))
		return c.factor(c.DefaultScore, ProvenanceUnavailable, "photo analysis unavailable; default score")
	}
	return c.factor(clamp01(score), ProvenanceLookup, fmt.Sprintf("photo analysis of %d photos", len(urls)))
}

func (c *PhotoCalculator) factor(score float64, prov Provenance, source string) Factor {
	m := 1 + (score-0.5)*c.Weight
	input := strconv.FormatFloat(roundTo(score, 3), 'f', -1, 64)
	return multiplicativeFactor(FactorVisual, input, m, prov,
		fmt.Sprintf("%s %s: %s", source, input, percentString(m-1)))
}

func (c *PhotoCalculator) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
