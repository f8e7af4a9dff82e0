package reftable_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/autoval/autoval/internal/platform"
	"github.com/autoval/autoval/pkg/reftable"
)

func newSQLSource(t *testing.T) *reftable.SQLSource {
	t.Helper()
	db, err := platform.Open(platform.DriverSQLite, filepath.Join(t.TempDir(), "ref.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := platform.AutoMigrate(db, platform.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return reftable.NewSQLSource(db)
}

func TestSQLSource_UpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	src := newSQLSource(t)

	n, err := src.Upsert(ctx, []reftable.Entry{
		{Table: reftable.TableColor, Key: "White", Multiplier: 1.01, Version: "v1"},
		{Table: reftable.TableColor, Key: "green", Multiplier: 0.97, Version: "v1"},
		{Table: reftable.TableRegionalDemand, Key: "90210", Multiplier: 1.08, Version: "v1"},
		{Table: reftable.TableRegionalDemand, Key: "90211", Multiplier: 1.02, Version: "v1"},
	})
	if err != nil || n != 4 {
		t.Fatalf("Upsert() = %d, %v", n, err)
	}

	if v, err := src.Lookup(ctx, reftable.TableColor, "WHITE"); err != nil || v != 1.01 {
		t.Errorf("expected white = 1.01, got %v (%v)", v, err)
	}
	if _, err := src.Lookup(ctx, reftable.TableColor, "teal"); !errors.Is(err, reftable.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	avg, err := src.PrefixAverage(ctx, reftable.TableRegionalDemand, "902")
	if err != nil || avg < 1.049 || avg > 1.051 {
		t.Errorf("expected prefix average 1.05, got %v (%v)", avg, err)
	}
	if _, err := src.PrefixAverage(ctx, reftable.TableRegionalDemand, "3"); !errors.Is(err, reftable.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty prefix match, got %v", err)
	}

	// Upsert replaces existing rows.
	if _, err := src.Upsert(ctx, []reftable.Entry{{Table: reftable.TableColor, Key: "white", Multiplier: 1.03, Version: "v2"}}); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}
	got, err := src.List(ctx, reftable.TableColor)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []reftable.Entry{
		{Table: reftable.TableColor, Key: "green", Multiplier: 0.97, Version: "v1"},
		{Table: reftable.TableColor, Key: "white", Multiplier: 1.03, Version: "v2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLSource_UpsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	src := newSQLSource(t)
	_, err := src.Upsert(ctx, []reftable.Entry{
		{Table: reftable.TableFuelType, Key: "diesel", Multiplier: 1.02},
		{Table: reftable.TableFuelType, Key: "steam", Multiplier: -1},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	rows, err := src.List(ctx, reftable.TableFuelType)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows after rejected upsert, got %d", len(rows))
	}
}

func TestSQLSource_SeedRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newSQLSource(t)
	seed, err := reftable.Seed()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Upsert(ctx, seed.Entries()); err != nil {
		t.Fatalf("Upsert(seed) error: %v", err)
	}
	for _, e := range seed.Entries() {
		got, err := src.Lookup(ctx, e.Table, e.Key)
		if err != nil || got != e.Multiplier {
			t.Errorf("%s/%s: expected %v, got %v (%v)", e.Table, e.Key, e.Multiplier, got, err)
		}
	}
}
