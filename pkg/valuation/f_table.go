package valuation

import (
	"context"
	"fmt"

	"github.com/autoval/autoval/pkg/reftable"
)

// TableCalculator resolves a single attribute against its reference table
// with a neutral default. Color, fuel type, transmission and driving
// profile all work this way.
type TableCalculator struct {
	Factor   FactorKind
	Table    reftable.Table
	Attr     func(*Request) string
	Label    string
	Resolver *Resolver
}

// NewColorCalculator resolves the exterior color.
func NewColorCalculator(r *Resolver) *TableCalculator {
	return &TableCalculator{
		Factor: FactorColor, Table: reftable.TableColor, Label: "color", Resolver: r,
		Attr: func(req *Request) string { return req.ExteriorColor },
	}
}

// NewFuelCalculator resolves the fuel type.
func NewFuelCalculator(r *Resolver) *TableCalculator {
	return &TableCalculator{
		Factor: FactorFuel, Table: reftable.TableFuelType, Label: "fuel type", Resolver: r,
		Attr: func(req *Request) string { return req.FuelType },
	}
}

// NewTransmissionCalculator resolves the transmission type.
func NewTransmissionCalculator(r *Resolver) *TableCalculator {
	return &TableCalculator{
		Factor: FactorTransmission, Table: reftable.TableTransmission, Label: "transmission", Resolver: r,
		Attr: func(req *Request) string { return req.Transmission },
	}
}

// NewDrivingProfileCalculator resolves the driving-profile risk label.
func NewDrivingProfileCalculator(r *Resolver) *TableCalculator {
	return &TableCalculator{
		Factor: FactorDrivingProfile, Table: reftable.TableDrivingProfile, Label: "driving profile", Resolver: r,
		Attr: func(req *Request) string { return req.DrivingProfile },
	}
}

func (c *TableCalculator) Kind() FactorKind { return c.Factor }

func (c *TableCalculator) Calculate(ctx context.Context, in Input) Factor {
	key := reftable.NormalizeKey(c.Attr(in.Request))
	if key == "" {
		return neutralFactor(c.Factor, "", ProvenanceHeuristic, unspecified)
	}
	res := c.Resolver.Resolve(ctx, c.Table, key, 1)
	if !res.Ok() {
		return neutralFactor(c.Factor, key, ProvenanceUnavailable,
			fmt.Sprintf("no %s entry for %q; no adjustment", c.Label, key))
	}
	return multiplicativeFactor(c.Factor, key, res.Value, ProvenanceLookup,
		fmt.Sprintf("%s %s: %s", c.Label, key, percentString(res.Value-1)))
}
