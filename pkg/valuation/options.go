package valuation

import (
	"errors"
	"fmt"
	"time"
)

// Options holds the engine's tunables. Build one with DefaultOptions,
// override fields, and hand it to NewEngine, which validates it. The engine
// keeps its own copy; later changes to the caller's value have no effect.
type Options struct {
	// Lookups
	LookupTimeout       time.Duration
	CollaboratorTimeout time.Duration // photo analysis, market demand, pricing reference

	// Confidence
	BaselineConfidence int
	LookupBonus        int // added per factor resolved from reference data
	UnavailablePenalty int // subtracted per factor that fell back to a default

	// Price range
	MaxRangePercent float64 // range width at or below LowConfidence
	MinRangePercent float64 // range width at or above HighConfidence
	LowConfidence   int
	HighConfidence  int

	// Feature set
	FeaturePenaltyThreshold int     // recognised features before the penalty starts
	FeaturePenaltyStep      float64 // scale-down per feature above the threshold
	FeaturePenaltyMax       float64 // cap on the scale-down

	// Structural flags
	FrameDamagePercent      float64
	MechanicalIssuesPercent float64

	// Visual condition
	PhotoWeight       float64 // multiplier = 1 + (score - 0.5) * PhotoWeight
	PhotoDefaultScore float64

	// Recall
	OpenRecallDefault float64

	// Request bounds
	MinYear       int
	MaxYearsAhead int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		LookupTimeout:       250 * time.Millisecond,
		CollaboratorTimeout: 2 * time.Second,

		BaselineConfidence: 75,
		LookupBonus:        3,
		UnavailablePenalty: 5,

		MaxRangePercent: 0.12,
		MinRangePercent: 0.05,
		LowConfidence:   40,
		HighConfidence:  80,

		FeaturePenaltyThreshold: 5,
		FeaturePenaltyStep:      0.05,
		FeaturePenaltyMax:       0.30,

		FrameDamagePercent:      -0.10,
		MechanicalIssuesPercent: -0.07,

		PhotoWeight:       0.2,
		PhotoDefaultScore: 0.5,

		OpenRecallDefault: 0.9,

		MinYear:       1900,
		MaxYearsAhead: 2,
	}
}

// Validate reports every inconsistent setting.
func (o Options) Validate() error {
	var errs []error
	if o.LookupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("lookup timeout must be positive, got %s", o.LookupTimeout))
	}
	if o.CollaboratorTimeout <= 0 {
		errs = append(errs, fmt.Errorf("collaborator timeout must be positive, got %s", o.CollaboratorTimeout))
	}
	if o.BaselineConfidence < 0 || o.BaselineConfidence > 100 {
		errs = append(errs, fmt.Errorf("baseline confidence must be in [0,100], got %d", o.BaselineConfidence))
	}
	if o.LookupBonus < 0 || o.UnavailablePenalty < 0 {
		errs = append(errs, errors.New("confidence bonus and penalty must be non-negative"))
	}
	if o.MinRangePercent <= 0 || o.MaxRangePercent < o.MinRangePercent || o.MaxRangePercent >= 1 {
		errs = append(errs, fmt.Errorf("range percents must satisfy 0 < min (%v) <= max (%v) < 1", o.MinRangePercent, o.MaxRangePercent))
	}
	if o.LowConfidence < 0 || o.HighConfidence > 100 || o.LowConfidence >= o.HighConfidence {
		errs = append(errs, fmt.Errorf("confidence breakpoints must satisfy 0 <= low (%d) < high (%d) <= 100", o.LowConfidence, o.HighConfidence))
	}
	if o.FeaturePenaltyThreshold < 0 || o.FeaturePenaltyStep < 0 || o.FeaturePenaltyMax < 0 || o.FeaturePenaltyMax > 1 {
		errs = append(errs, errors.New("feature penalty settings must be non-negative and the cap at most 1"))
	}
	if o.FrameDamagePercent > 0 || o.MechanicalIssuesPercent > 0 || o.FrameDamagePercent <= -1 || o.MechanicalIssuesPercent <= -1 {
		errs = append(errs, errors.New("structural percents must be in (-1, 0]"))
	}
	if o.PhotoWeight < 0 || o.PhotoWeight >= 2 {
		errs = append(errs, fmt.Errorf("photo weight must be in [0,2), got %v", o.PhotoWeight))
	}
	if o.PhotoDefaultScore < 0 || o.PhotoDefaultScore > 1 {
		errs = append(errs, fmt.Errorf("photo default score must be in [0,1], got %v", o.PhotoDefaultScore))
	}
	if o.OpenRecallDefault <= 0 || o.OpenRecallDefault > 1 {
		errs = append(errs, fmt.Errorf("open recall default must be in (0,1], got %v", o.OpenRecallDefault))
	}
	if o.MinYear <= 0 || o.MaxYearsAhead < 0 {
		errs = append(errs, errors.New("year bounds must be positive"))
	}
	return errors.Join(errs...)
}
