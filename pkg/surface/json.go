package surface

import (
	"encoding/json"
	"io"

	"github.com/autoval/autoval/pkg/valuation"
)

// JSONRenderer marshals a Breakdown to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, b *valuation.Breakdown) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
