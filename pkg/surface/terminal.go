package surface

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/autoval/autoval/pkg/valuation"
)

// TerminalRenderer renders a Breakdown as colored terminal output.
type TerminalRenderer struct {
	// ShowNeutral lists factors that did not move the price.
	ShowNeutral bool
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func confidenceColor(level string) string {
	if noColor() {
		return ""
	}
	switch level {
	case valuation.ConfidenceHigh:
		return colorGreen
	case valuation.ConfidenceMedium:
		return colorYellow
	case valuation.ConfidenceLow:
		return colorRed
	default:
		return ""
	}
}

func effectColor(v float64) string {
	switch {
	case v > 0:
		return colorGreen
	case v < 0:
		return colorRed
	default:
		return ""
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, b *valuation.Breakdown) error {
	v := b.Vehicle
	title := strings.TrimSpace(fmt.Sprintf("%d %s %s %s", v.Year, v.Make, v.Model, v.Trim))

	// Header
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("%s: %s", title, money(b.PredictedPrice, 0))))
	fmt.Fprintf(w, "Confidence: %s   Range: %s to %s\n",
		colored(fmt.Sprintf("%d (%s)", b.Confidence, b.ConfidenceLevel), confidenceColor(b.ConfidenceLevel)),
		money(b.PriceRange.Low, 0), money(b.PriceRange.High, 0))
	fmt.Fprintf(w, "Base price: %s (%s)\n\n", money(b.BasePrice, 2), b.BasePriceSource)

	// Multiplicative chain
	fmt.Fprintln(w, "Price chain:")
	shown := 0
	for _, s := range b.Steps {
		if s.Factor.Neutral() && !r.ShowNeutral {
			continue
		}
		shown++
		fmt.Fprintf(w, "  %-18s %8s  %12s -> %-12s %s\n",
			s.Factor.Kind,
			colored(signedPercent(s.Factor.Percent), effectColor(s.Effect)),
			money(s.PriceBefore, 2), money(s.PriceAfter, 2),
			dim(s.Factor.Rationale+provenanceNote(s.Factor.Provenance)))
	}
	if shown == 0 {
		fmt.Fprintln(w, "  No adjustments.")
	}
	fmt.Fprintln(w)

	// Additive explanation
	fmt.Fprintln(w, "Explainability (against base price):")
	shown = 0
	for _, f := range b.Explainability.Adjustments {
		if f.Neutral() && !r.ShowNeutral {
			continue
		}
		shown++
		fmt.Fprintf(w, "  %-18s %8s  %12s  %s\n",
			f.Kind,
			colored(signedPercent(f.Percent), effectColor(f.Delta)),
			signedMoney(f.Delta),
			dim(f.Rationale+provenanceNote(f.Provenance)))
	}
	if shown == 0 {
		fmt.Fprintln(w, "  No adjustments.")
	}
	fmt.Fprintf(w, "  %-18s %8s  %12s  %s\n", "total", "",
		signedMoney(b.Explainability.TotalDelta), money(b.Explainability.AdjustedPrice, 0))
	fmt.Fprintln(w)

	return nil
}

func provenanceNote(p valuation.Provenance) string {
	if p == valuation.ProvenanceLookup {
		return ""
	}
	return " [" + string(p) + "]"
}

func signedPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64) + "%"
	if p > 0 {
		return "+" + s
	}
	return s
}

func signedMoney(v float64) string {
	if v > 0 {
		return "+" + money(v, 2)
	}
	return money(v, 2)
}

// money formats v as dollars with thousands separators: -1234.5 -> "-$1,234.50".
func money(v float64, places int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = math.Abs(v)
	}
	s := strconv.FormatFloat(v, 'f', places, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if frac != "" {
		sb.WriteString("." + frac)
	}
	return sign + "$" + sb.String()
}
