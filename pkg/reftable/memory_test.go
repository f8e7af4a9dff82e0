package reftable_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/autoval/autoval/pkg/reftable"
)

func TestSeed(t *testing.T) {
	src, err := reftable.Seed()
	if err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	if src.Version() == "" {
		t.Error("expected a seed version")
	}
	v, err := src.Lookup(context.Background(), reftable.TableRegionalDemand, "90210")
	if err != nil || v != 1.08 {
		t.Errorf("expected 90210 = 1.08, got %v (%v)", v, err)
	}
	seen := make(map[reftable.Table]bool)
	for _, e := range src.Entries() {
		seen[e.Table] = true
	}
	for _, table := range reftable.AllTables {
		if !seen[table] {
			t.Errorf("seed has no rows for %s", table)
		}
	}
}

func TestMemorySource_LookupNormalizesKeys(t *testing.T) {
	src, err := reftable.NewMemorySource("v1", []reftable.Entry{
		{Table: reftable.TableColor, Key: "Pearl  White", Multiplier: 1.02},
	})
	if err != nil {
		t.Fatalf("NewMemorySource() error: %v", err)
	}
	v, err := src.Lookup(context.Background(), reftable.TableColor, " pearl white ")
	if err != nil || v != 1.02 {
		t.Errorf("expected 1.02, got %v (%v)", v, err)
	}
	if _, err := src.Lookup(context.Background(), reftable.TableColor, "mauve"); !errors.Is(err, reftable.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := src.Lookup(context.Background(), reftable.TableFuelType, "pearl white"); !errors.Is(err, reftable.ErrNotFound) {
		t.Errorf("tables must not share keys, got %v", err)
	}
}

func TestMemorySource_PrefixAverage(t *testing.T) {
	src, err := reftable.NewMemorySource("v1", []reftable.Entry{
		{Table: reftable.TableRegionalDemand, Key: "90210", Multiplier: 1.10},
		{Table: reftable.TableRegionalDemand, Key: "90211", Multiplier: 1.00},
		{Table: reftable.TableRegionalDemand, Key: "10001", Multiplier: 1.20},
	})
	if err != nil {
		t.Fatalf("NewMemorySource() error: %v", err)
	}
	tests := []struct {
		prefix string
		want   float64
		err    error
	}{
		{"902", 1.05, nil},
		{"9", 1.05, nil},
		{"1", 1.20, nil},
		{"5", 0, reftable.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := src.PrefixAverage(context.Background(), reftable.TableRegionalDemand, tt.prefix)
		if !errors.Is(err, tt.err) {
			t.Errorf("prefix %s: expected err %v, got %v", tt.prefix, tt.err, err)
			continue
		}
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("prefix %s: expected %v, got %v", tt.prefix, tt.want, got)
		}
	}
}

func TestNewMemorySource_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry reftable.Entry
	}{
		{"unknown table", reftable.Entry{Table: "paint_codes", Key: "red", Multiplier: 1}},
		{"empty key", reftable.Entry{Table: reftable.TableColor, Key: "  ", Multiplier: 1}},
		{"zero multiplier", reftable.Entry{Table: reftable.TableColor, Key: "red", Multiplier: 0}},
		{"negative multiplier", reftable.Entry{Table: reftable.TableColor, Key: "red", Multiplier: -1}},
	}
	for _, tt := range tests {
		if _, err := reftable.NewMemorySource("v1", []reftable.Entry{tt.entry}); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `version: "2027.01"
tables:
  fuel_type:
    diesel: 1.05
  regional_demand:
    "02108": 1.04
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := reftable.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if src.Version() != "2027.01" {
		t.Errorf("expected version 2027.01, got %s", src.Version())
	}
	if v, _ := src.Lookup(context.Background(), reftable.TableRegionalDemand, "02108"); v != 1.04 {
		t.Errorf("expected leading-zero zip to survive YAML decoding, got %v", v)
	}
	if got := len(src.Entries()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}

	if _, err := reftable.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := reftable.Parse([]byte("tables: [1, 2")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
