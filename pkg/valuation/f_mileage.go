package valuation

import (
	"context"
	"fmt"
	"strconv"
)

// MileageCalculator applies the banded mileage curve.
type MileageCalculator struct {
	Bands []MileageBand // ordered by Below; last band is open-ended
}

func (c *MileageCalculator) Kind() FactorKind { return FactorMileage }

func (c *MileageCalculator) Calculate(_ context.Context, in Input) Factor {
	if in.Request.Mileage == nil {
		return neutralFactor(FactorMileage, "", ProvenanceHeuristic, unspecified)
	}
	miles := *in.Request.Mileage
	input := strconv.Itoa(miles)

	band := c.bandFor(miles)
	return additiveFactor(FactorMileage, input, band.Percent, in.BasePrice, ProvenanceHeuristic,
		fmt.Sprintf("%s (%s mi): %s", band.Label, input, percentString(band.Percent)))
}

func (c *MileageCalculator) bandFor(miles int) MileageBand {
	for _, b := range c.Bands {
		if b.Below > 0 && miles < b.Below {
			return b
		}
	}
	return c.Bands[len(c.Bands)-1]
}
