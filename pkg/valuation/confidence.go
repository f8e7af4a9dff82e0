package valuation

import "math"

// Confidence levels.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// EstimateConfidence scores how much of a valuation rests on reference data.
// It starts at the baseline, gains LookupBonus per looked-up factor, loses
// UnavailablePenalty per defaulted factor and is clamped to [0,100].
// Heuristic factors leave it unchanged.
func EstimateConfidence(opts Options, factors []Factor) int {
	score := opts.BaselineConfidence
	for _, f := range factors {
		switch f.Provenance {
		case ProvenanceLookup:
			score += opts.LookupBonus
		case ProvenanceUnavailable:
			score -= opts.UnavailablePenalty
		}
	}
	return max(0, min(100, score))
}

// RangePercent is the price range width as a fraction of the base price.
// It is MaxRangePercent at or below LowConfidence, MinRangePercent at or
// above HighConfidence, and linear in between.
func RangePercent(opts Options, confidence int) float64 {
	switch {
	case confidence <= opts.LowConfidence:
		return opts.MaxRangePercent
	case confidence >= opts.HighConfidence:
		return opts.MinRangePercent
	}
	t := float64(confidence-opts.LowConfidence) / float64(opts.HighConfidence-opts.LowConfidence)
	return opts.MaxRangePercent - t*(opts.MaxRangePercent-opts.MinRangePercent)
}

// PriceRangeFor centres a range of width basePrice * RangePercent on the
// predicted price. Low never drops below zero.
func PriceRangeFor(opts Options, basePrice, predicted float64, confidence int) PriceRange {
	half := basePrice * RangePercent(opts, confidence) / 2
	low := math.Max(0, math.Floor(predicted-half))
	high := math.Ceil(predicted + half)
	return PriceRange{Low: low, High: high}
}

// ConfidenceLevel buckets a score for display.
func ConfidenceLevel(opts Options, confidence int) string {
	switch {
	case confidence >= opts.HighConfidence:
		return ConfidenceHigh
	case confidence <= opts.LowConfidence:
		return ConfidenceLow
	}
	return ConfidenceMedium
}
