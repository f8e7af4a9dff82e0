package valuation_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/autoval/autoval/pkg/reftable"
	"github.com/autoval/autoval/pkg/valuation"
)

func seedSource(t *testing.T) *reftable.MemorySource {
	t.Helper()
	src, err := reftable.Seed()
	if err != nil {
		t.Fatalf("loading seed tables: %v", err)
	}
	return src
}

func memorySource(t *testing.T, table reftable.Table, rows map[string]float64) *reftable.MemorySource {
	t.Helper()
	var entries []reftable.Entry
	for k, v := range rows {
		entries = append(entries, reftable.Entry{Table: table, Key: k, Multiplier: v})
	}
	src, err := reftable.NewMemorySource("test", entries)
	if err != nil {
		t.Fatalf("building memory source: %v", err)
	}
	return src
}

func emptySource(t *testing.T) *reftable.MemorySource {
	return memorySource(t, reftable.TableColor, nil)
}

// failingSource fails every lookup.
type failingSource struct {
	calls atomic.Int64
}

func (s *failingSource) Lookup(context.Context, reftable.Table, string) (float64, error) {
	s.calls.Add(1)
	return 0, errors.New("connection refused")
}

func (s *failingSource) PrefixAverage(context.Context, reftable.Table, string) (float64, error) {
	s.calls.Add(1)
	return 0, errors.New("connection refused")
}

// blockingSource never answers before the context is done.
type blockingSource struct{}

func (blockingSource) Lookup(ctx context.Context, _ reftable.Table, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (blockingSource) PrefixAverage(ctx context.Context, _ reftable.Table, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// fixedSource returns the same value for every key.
type fixedSource float64

func (s fixedSource) Lookup(context.Context, reftable.Table, string) (float64, error) {
	return float64(s), nil
}

func (s fixedSource) PrefixAverage(context.Context, reftable.Table, string) (float64, error) {
	return float64(s), nil
}

type photoFunc func(ctx context.Context, urls []string) (float64, error)

func (f photoFunc) Score(ctx context.Context, urls []string) (float64, error) { return f(ctx, urls) }

type demandFunc func(ctx context.Context, zip string) (float64, bool, error)

func (f demandFunc) RegionalDemand(ctx context.Context, zip string) (float64, bool, error) {
	return f(ctx, zip)
}

type priceFunc func(ctx context.Context, v valuation.Vehicle) (float64, error)

func (f priceFunc) BasePrice(ctx context.Context, v valuation.Vehicle) (float64, error) { return f(ctx, v) }

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// calc runs a single calculator against req with the given base price.
func calc(c valuation.Calculator, req valuation.Request, base float64) valuation.Factor {
	return c.Calculate(context.Background(), valuation.Input{Request: &req, BasePrice: base})
}

func camryRequest() *valuation.Request {
	return &valuation.Request{
		Make:          "Toyota",
		Model:         "Camry",
		Year:          2020,
		Mileage:       intPtr(35000),
		Condition:     "Good",
		AccidentCount: 0,
		TitleStatus:   "Clean",
		ZipCode:       "90210",
		BasePrice:     22000,
	}
}
