package valuation

import "strings"

// Condition is the owner-reported condition grade.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// ParseCondition maps a raw label to a Condition, case-insensitively.
func ParseCondition(raw string) (Condition, bool) {
	switch c := Condition(normalize(raw)); c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return c, true
	}
	return "", false
}

// TitleStatus is the legal title brand.
type TitleStatus string

const (
	TitleClean   TitleStatus = "clean"
	TitleRebuilt TitleStatus = "rebuilt"
	TitleLemon   TitleStatus = "lemon"
	TitleFlood   TitleStatus = "flood"
	TitleSalvage TitleStatus = "salvage"
)

// ParseTitleStatus maps a raw label to a TitleStatus.
func ParseTitleStatus(raw string) (TitleStatus, bool) {
	switch t := TitleStatus(normalize(raw)); t {
	case TitleClean, TitleRebuilt, TitleLemon, TitleFlood, TitleSalvage:
		return t, true
	case "rebuilt/reconstructed", "reconstructed":
		return TitleRebuilt, true
	case "flood damage", "flood-damaged", "water damage":
		return TitleFlood, true
	}
	return "", false
}

// WarrantyCategory is the kind of remaining coverage.
type WarrantyCategory string

const (
	WarrantyFactory    WarrantyCategory = "factory"
	WarrantyCertified  WarrantyCategory = "certified"
	WarrantyExtended   WarrantyCategory = "extended"
	WarrantyPowertrain WarrantyCategory = "powertrain"
	WarrantyNone       WarrantyCategory = "none"
	WarrantyExpired    WarrantyCategory = "expired"
)

// ParseWarranty maps a raw label to a WarrantyCategory.
func ParseWarranty(raw string) (WarrantyCategory, bool) {
	switch w := WarrantyCategory(normalize(raw)); w {
	case WarrantyFactory, WarrantyCertified, WarrantyExtended, WarrantyPowertrain, WarrantyNone, WarrantyExpired:
		return w, true
	case "manufacturer", "bumper-to-bumper":
		return WarrantyFactory, true
	case "cpo", "certified pre-owned":
		return WarrantyCertified, true
	}
	return "", false
}

// MileageBand is one step of the mileage curve: vehicles with fewer than
// Below miles receive Percent.
type MileageBand struct {
	Below   int
	Percent float64
	Label   string
}

// DefaultMileageBands is ordered by Below; the last band is open-ended.
func DefaultMileageBands() []MileageBand {
	return []MileageBand{
		{Below: 10_000, Percent: 0.04, Label: "very low mileage"},
		{Below: 25_000, Percent: 0.02, Label: "low mileage"},
		{Below: 50_000, Percent: 0.01, Label: "below-average mileage"},
		{Below: 75_000, Percent: 0, Label: "average mileage"},
		{Below: 100_000, Percent: -0.03, Label: "above-average mileage"},
		{Below: 125_000, Percent: -0.06, Label: "high mileage"},
		{Below: 150_000, Percent: -0.10, Label: "very high mileage"},
		{Below: 0, Percent: -0.15, Label: "excessive mileage"},
	}
}

// DefaultConditionPercents is the condition grade curve.
func DefaultConditionPercents() map[Condition]float64 {
	return map[Condition]float64{
		ConditionExcellent: 0.05,
		ConditionGood:      0,
		ConditionFair:      -0.08,
		ConditionPoor:      -0.15,
	}
}

// DefaultAccidentPercents is indexed by accident count; the last entry
// applies to every higher count.
func DefaultAccidentPercents() []float64 {
	return []float64{0, -0.05, -0.12, -0.20}
}

// DefaultTitlePercents is used when the title table has no entry.
func DefaultTitlePercents() map[TitleStatus]float64 {
	return map[TitleStatus]float64{
		TitleClean:   0,
		TitleRebuilt: -0.30,
		TitleLemon:   -0.25,
		TitleFlood:   -0.50,
		TitleSalvage: -0.50,
	}
}

// DefaultWarrantyBumps is used when the warranty table has no entry.
func DefaultWarrantyBumps() map[WarrantyCategory]float64 {
	return map[WarrantyCategory]float64{
		WarrantyFactory:    1.03,
		WarrantyCertified:  1.04,
		WarrantyExtended:   1.02,
		WarrantyPowertrain: 1.015,
		WarrantyNone:       1.0,
		WarrantyExpired:    1.0,
	}
}

// TrimKey identifies a trim level.
type TrimKey struct {
	Make  string
	Model string
	Trim  string
}

func newTrimKey(mk, model, trim string) TrimKey {
	return TrimKey{Make: normalize(mk), Model: normalize(model), Trim: normalize(trim)}
}

// DefaultTrimPercents holds trim premiums relative to the base trim.
func DefaultTrimPercents() map[TrimKey]float64 {
	return map[TrimKey]float64{
		newTrimKey("toyota", "camry", "le"):           0,
		newTrimKey("toyota", "camry", "se"):           0.02,
		newTrimKey("toyota", "camry", "xle"):          0.05,
		newTrimKey("toyota", "camry", "xse"):          0.06,
		newTrimKey("toyota", "camry", "trd"):          0.08,
		newTrimKey("toyota", "rav4", "le"):            0,
		newTrimKey("toyota", "rav4", "xle"):           0.03,
		newTrimKey("toyota", "rav4", "limited"):       0.08,
		newTrimKey("honda", "civic", "lx"):            0,
		newTrimKey("honda", "civic", "ex"):            0.03,
		newTrimKey("honda", "civic", "si"):            0.07,
		newTrimKey("honda", "civic", "type r"):        0.25,
		newTrimKey("honda", "accord", "lx"):           0,
		newTrimKey("honda", "accord", "ex-l"):         0.04,
		newTrimKey("honda", "accord", "touring"):      0.08,
		newTrimKey("ford", "f-150", "xl"):             0,
		newTrimKey("ford", "f-150", "xlt"):            0.05,
		newTrimKey("ford", "f-150", "lariat"):         0.10,
		newTrimKey("ford", "f-150", "platinum"):       0.16,
		newTrimKey("ford", "f-150", "raptor"):         0.22,
		newTrimKey("chevrolet", "silverado", "lt"):    0.04,
		newTrimKey("chevrolet", "silverado", "ltz"):   0.09,
		newTrimKey("tesla", "model 3", "long range"):  0.08,
		newTrimKey("tesla", "model 3", "performance"): 0.14,
		newTrimKey("bmw", "3 series", "m sport"):      0.05,
		newTrimKey("subaru", "outback", "limited"):    0.05,
		newTrimKey("subaru", "outback", "wilderness"): 0.07,
	}
}

// Feature identifies an optional equipment item.
type Feature string

// DefaultFeaturePercents maps features to their share of base price.
func DefaultFeaturePercents() map[Feature]float64 {
	return map[Feature]float64{
		"sunroof":               0.015,
		"panoramic roof":        0.02,
		"navigation":            0.01,
		"leather seats":         0.02,
		"heated seats":          0.01,
		"ventilated seats":      0.01,
		"backup camera":         0.005,
		"360 camera":            0.01,
		"adaptive cruise":       0.015,
		"lane keep assist":      0.01,
		"blind spot monitoring": 0.01,
		"premium audio":         0.01,
		"apple carplay":         0.005,
		"android auto":          0.005,
		"remote start":          0.005,
		"third row seating":     0.02,
		"tow package":           0.02,
		"all-wheel drive":       0.03,
		"heads-up display":      0.01,
		"upgraded wheels":       0.01,
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
