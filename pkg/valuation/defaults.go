package valuation

import (
	"go.uber.org/zap"

	"github.com/autoval/autoval/pkg/reftable"
)

// Deps are the collaborators the default calculators consult. Every field
// is optional: a nil Tables makes every lookup fall back, and nil
// collaborators are simply not called.
type Deps struct {
	Tables reftable.Source
	Photos PhotoScorer
	Demand DemandSource
	Prices PriceReference
	Logger *zap.Logger
}

// DefaultCalculators returns one calculator per factor kind, tuned by opts.
func DefaultCalculators(opts Options, deps Deps) []Calculator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewResolver(deps.Tables, opts.LookupTimeout, logger)
	return []Calculator{
		&MileageCalculator{Bands: DefaultMileageBands()},
		&ConditionCalculator{Percents: DefaultConditionPercents(), Logger: logger},
		&AccidentCalculator{Percents: DefaultAccidentPercents()},
		&TitleCalculator{Resolver: r, Percents: DefaultTitlePercents(), Logger: logger},
		&StructuralCalculator{
			FramePercent:      opts.FrameDamagePercent,
			MechanicalPercent: opts.MechanicalIssuesPercent,
		},
		&TrimCalculator{Percents: DefaultTrimPercents()},
		&FeaturesCalculator{
			Percents:       DefaultFeaturePercents(),
			PenaltyAfter:   opts.FeaturePenaltyThreshold,
			PenaltyStep:    opts.FeaturePenaltyStep,
			PenaltyMaximum: opts.FeaturePenaltyMax,
		},
		&RegionCalculator{Resolver: r, Demand: deps.Demand, Timeout: opts.CollaboratorTimeout, Logger: logger},
		&PhotoCalculator{
			Scorer:       deps.Photos,
			Weight:       opts.PhotoWeight,
			DefaultScore: opts.PhotoDefaultScore,
			Timeout:      opts.CollaboratorTimeout,
			Logger:       logger,
		},
		NewColorCalculator(r),
		NewFuelCalculator(r),
		NewTransmissionCalculator(r),
		&RecallCalculator{Resolver: r, OpenDefault: opts.OpenRecallDefault},
		NewDrivingProfileCalculator(r),
		&WarrantyCalculator{Resolver: r, Bumps: DefaultWarrantyBumps(), Logger: logger},
		&SeasonCalculator{Resolver: r},
	}
}

// New creates an engine running the default calculators.
func New(opts Options, deps Deps) (*Engine, error) {
	return NewEngine(opts, deps.Logger, deps.Prices, DefaultCalculators(opts, deps)...)
}
