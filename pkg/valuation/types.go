// Package valuation implements the vehicle valuation adjustment engine.
// It turns a base market price into an estimated value by composing
// independent adjustment factors and reports how each factor moved the price.
package valuation

import "time"

// Request is everything known about the vehicle being valued.
type Request struct {
	// Identity
	Make  string `json:"make" validate:"required"`
	Model string `json:"model" validate:"required"`
	Year  int    `json:"year" validate:"required"`
	Trim  string `json:"trim,omitempty"`
	VIN   string `json:"vin,omitempty"` // ignored unless 17 alphanumerics

	// Condition
	Mileage          *int   `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Condition        string `json:"condition,omitempty"`
	AccidentCount    int    `json:"accident_count,omitempty"`
	TitleStatus      string `json:"title_status,omitempty"`
	FrameDamage      bool   `json:"frame_damage,omitempty"`
	MechanicalIssues bool   `json:"mechanical_issues,omitempty"`

	// Market
	ZipCode   string     `json:"zip_code,omitempty"`
	Region    string     `json:"region,omitempty"` // used when no zip code is given
	SaleDate  *time.Time `json:"sale_date,omitempty"`
	BodyStyle string     `json:"body_style,omitempty"`

	// Optional attributes
	ExteriorColor  string   `json:"exterior_color,omitempty"`
	FuelType       string   `json:"fuel_type,omitempty"`
	Transmission   string   `json:"transmission,omitempty"`
	HasOpenRecall  *bool    `json:"has_open_recall,omitempty"`
	WarrantyStatus string   `json:"warranty_status,omitempty"`
	DrivingProfile string   `json:"driving_profile,omitempty"`
	Features       []string `json:"features,omitempty"`
	PhotoURLs      []string `json:"photo_urls,omitempty"`

	// PhotoScore is an externally supplied visual-condition score in [0,1].
	PhotoScore *float64 `json:"photo_score,omitempty"`

	// BasePrice is the pre-adjustment reference price. Zero means "derive
	// from the pricing reference".
	BasePrice float64 `json:"base_price,omitempty" validate:"gte=0"`
}

// FactorKind enumerates the adjustment dimensions.
type FactorKind string

const (
	FactorMileage        FactorKind = "mileage"
	FactorCondition      FactorKind = "condition"
	FactorAccident       FactorKind = "accident_history"
	FactorTitle          FactorKind = "title_status"
	FactorStructural     FactorKind = "structural"
	FactorTrim           FactorKind = "trim"
	FactorFeatures       FactorKind = "features"
	FactorRegion         FactorKind = "regional_demand"
	FactorVisual         FactorKind = "visual_condition"
	FactorColor          FactorKind = "exterior_color"
	FactorFuel           FactorKind = "fuel_type"
	FactorTransmission   FactorKind = "transmission"
	FactorRecall         FactorKind = "recall"
	FactorDrivingProfile FactorKind = "driving_profile"
	FactorWarranty       FactorKind = "warranty"
	FactorSeason         FactorKind = "seasonal_index"
)

// MultiplicativeOrder is the canonical order in which multiplier factors
// are applied to the base price.
var MultiplicativeOrder = []FactorKind{
	FactorRegion,
	FactorVisual,
	FactorColor,
	FactorFuel,
	FactorTransmission,
	FactorRecall,
	FactorDrivingProfile,
	FactorWarranty,
	FactorSeason,
}

// AdditiveOrder lists the dollar factors computed against the
// pre-multiplier base price for the explainability breakdown.
var AdditiveOrder = []FactorKind{
	FactorMileage,
	FactorCondition,
	FactorAccident,
	FactorTitle,
	FactorStructural,
	FactorTrim,
	FactorFeatures,
}

// Mode reports how a factor kind is applied.
func (k FactorKind) Mode() Mode {
	for _, m := range MultiplicativeOrder {
		if k == m {
			return ModeMultiplicative
		}
	}
	return ModeAdditive
}

// Mode distinguishes factors on the headline multiplicative chain from the
// dollar factors of the explainability breakdown.
type Mode string

const (
	ModeMultiplicative Mode = "multiplicative"
	ModeAdditive       Mode = "additive"
)

// Provenance records where a factor's value came from.
type Provenance string

const (
	ProvenanceLookup      Provenance = "lookup"
	ProvenanceHeuristic   Provenance = "heuristic-default"
	ProvenanceUnavailable Provenance = "unavailable-default"
)

// Factor is the result of one calculator.
type Factor struct {
	Kind       FactorKind `json:"kind"`
	Mode       Mode       `json:"mode"`
	Input      string     `json:"input"`
	Multiplier float64    `json:"multiplier"` // 1.0 = neutral
	Percent    float64    `json:"percent"`    // (multiplier - 1) * 100
	Delta      float64    `json:"delta"`      // dollars against the base price
	Provenance Provenance `json:"provenance"`
	Rationale  string     `json:"rationale"`
}

// Neutral reports whether the factor leaves the price unchanged.
func (f Factor) Neutral() bool {
	return f.Multiplier == 1 && f.Delta == 0
}

// Step is one application of a multiplicative factor.
type Step struct {
	Factor      Factor  `json:"factor"`
	PriceBefore float64 `json:"price_before"`
	PriceAfter  float64 `json:"price_after"`
	Effect      float64 `json:"effect"` // PriceAfter - PriceBefore
}

// Explainability is the additive, per-factor dollar view of the valuation.
// Its total is not guaranteed to match the multiplicative chain.
type Explainability struct {
	Adjustments   []Factor `json:"adjustments"`
	TotalDelta    float64  `json:"total_delta"`
	AdjustedPrice float64  `json:"adjusted_price"`
}

// PriceRange bounds the predicted price.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Vehicle is the identity echoed back in the breakdown.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Trim  string `json:"trim,omitempty"`
}

// Base price sources.
const (
	BasePriceFromRequest   = "request"
	BasePriceFromReference = "pricing-reference"
)

// Breakdown is the complete, immutable output of one valuation.
type Breakdown struct {
	Vehicle         Vehicle        `json:"vehicle"`
	BasePrice       float64        `json:"base_price"`
	BasePriceSource string         `json:"base_price_source"`
	Steps           []Step         `json:"steps"`
	Explainability  Explainability `json:"explainability"`
	PredictedPrice  float64        `json:"predicted_price"`
	Confidence      int            `json:"confidence_score"`
	ConfidenceLevel string         `json:"confidence_level"`
	PriceRange      PriceRange     `json:"price_range"`
}

// Factors returns every factor in the breakdown, multiplicative first.
func (b *Breakdown) Factors() []Factor {
	out := make([]Factor, 0, len(b.Steps)+len(b.Explainability.Adjustments))
	for _, s := range b.Steps {
		out = append(out, s.Factor)
	}
	return append(out, b.Explainability.Adjustments...)
}

// Factor returns the factor of the given kind, if present.
func (b *Breakdown) Factor(kind FactorKind) (Factor, bool) {
	for _, f := range b.Factors() {
		if f.Kind == kind {
			return f, true
		}
	}
	return Factor{}, false
}
