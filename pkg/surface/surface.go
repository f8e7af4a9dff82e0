// Package surface defines output rendering for valuation breakdowns.
// Implementations handle different output targets: terminal and JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/autoval/autoval/pkg/valuation"
)

// Renderer produces formatted output from a Breakdown.
type Renderer interface {
	// Render writes the formatted breakdown to the writer.
	Render(w io.Writer, b *valuation.Breakdown) error
}

// ForFormat returns the renderer for an --output value.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}
