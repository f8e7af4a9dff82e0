package surface_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/autoval/autoval/pkg/surface"
	"github.com/autoval/autoval/pkg/valuation"
)

func sampleBreakdown() *valuation.Breakdown {
	region := valuation.Factor{
		Kind: valuation.FactorRegion, Mode: valuation.ModeMultiplicative, Input: "90210",
		Multiplier: 1.08, Percent: 8, Provenance: valuation.ProvenanceLookup, Rationale: "zip 90210 demand: +8%",
	}
	color := valuation.Factor{
		Kind: valuation.FactorColor, Mode: valuation.ModeMultiplicative,
		Multiplier: 1, Provenance: valuation.ProvenanceHeuristic, Rationale: "unspecified",
	}
	mileage := valuation.Factor{
		Kind: valuation.FactorMileage, Mode: valuation.ModeAdditive, Input: "35000",
		Multiplier: 1.01, Percent: 1, Delta: 220, Provenance: valuation.ProvenanceHeuristic,
		Rationale: "below-average mileage (35000 mi): +1%",
	}
	accident := valuation.Factor{
		Kind: valuation.FactorAccident, Mode: valuation.ModeAdditive, Input: "2",
		Multiplier: 0.88, Percent: -12, Delta: -2640, Provenance: valuation.ProvenanceHeuristic,
		Rationale: "2 reported accidents: -12%",
	}
	return &valuation.Breakdown{
		Vehicle:         valuation.Vehicle{Make: "Toyota", Model: "Camry", Year: 2020},
		BasePrice:       22000,
		BasePriceSource: valuation.BasePriceFromRequest,
		Steps: []valuation.Step{
			{Factor: region, PriceBefore: 22000, PriceAfter: 23760, Effect: 1760},
			{Factor: color, PriceBefore: 23760, PriceAfter: 23760},
		},
		Explainability: valuation.Explainability{
			Adjustments:   []valuation.Factor{mileage, accident},
			TotalDelta:    -2420,
			AdjustedPrice: 19580,
		},
		PredictedPrice:  23760,
		Confidence:      81,
		ConfidenceLevel: valuation.ConfidenceHigh,
		PriceRange:      valuation.PriceRange{Low: 23210, High: 24310},
	}
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	// Set NO_COLOR to avoid ANSI codes in test comparison
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, sampleBreakdown()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2020 Toyota Camry: $23,760",
		"Confidence: 81 (high)",
		"$23,210 to $24,310",
		"Base price: $22,000.00 (request)",
		"regional_demand",
		"+8%",
		"$22,000.00 -> $23,760.00",
		"+$220.00",
		"-$2,640.00",
		"[heuristic-default]",
		"$19,580",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "exterior_color") {
		t.Error("neutral factors should be hidden by default")
	}
}

func TestTerminalRenderer_ShowNeutral(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{ShowNeutral: true}
	var buf bytes.Buffer
	if err := r.Render(&buf, sampleBreakdown()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "exterior_color") {
		t.Error("expected neutral color factor when ShowNeutral is set")
	}
}

func TestTerminalRenderer_NoAdjustments(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	b := &valuation.Breakdown{
		Vehicle:        valuation.Vehicle{Make: "Ford", Model: "F-150", Year: 2019},
		BasePrice:      31000,
		PredictedPrice: 31000,
		Confidence:     75,
	}
	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, b); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got := strings.Count(buf.String(), "No adjustments."); got != 2 {
		t.Errorf("expected 'No adjustments.' twice, got %d", got)
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	// Without NO_COLOR, output should have ANSI codes
	t.Setenv("NO_COLOR", "") // restores the original value afterwards
	os.Unsetenv("NO_COLOR")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, sampleBreakdown()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).Render(&buf, sampleBreakdown()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["predicted_price"] != 23760.0 || decoded["confidence_score"] != 81.0 {
		t.Errorf("unexpected top-level fields: %v", decoded)
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"", "text", "json"} {
		if _, err := surface.ForFormat(format); err != nil {
			t.Errorf("ForFormat(%q) error: %v", format, err)
		}
	}
	if _, err := surface.ForFormat("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}
