// Package reftable provides read access to the versioned reference tables
// that back lookup-driven valuation factors. Each table maps a normalized
// key to a single multiplier (1.0 = neutral).
package reftable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Table names a reference table.
type Table string

const (
	TableTitleStatus    Table = "title_status"
	TableColor          Table = "exterior_color"
	TableFuelType       Table = "fuel_type"
	TableTransmission   Table = "transmission"
	TableRecall         Table = "recall"
	TableWarranty       Table = "warranty"
	TableSeasonalIndex  Table = "seasonal_index"
	TableRegionalDemand Table = "regional_demand"
	TableDrivingProfile Table = "driving_profile"
)

// AllTables lists every table known to the valuation engine.
var AllTables = []Table{
	TableTitleStatus,
	TableColor,
	TableFuelType,
	TableTransmission,
	TableRecall,
	TableWarranty,
	TableSeasonalIndex,
	TableRegionalDemand,
	TableDrivingProfile,
}

// Valid reports whether t is one of AllTables.
func (t Table) Valid() bool {
	for _, known := range AllTables {
		if t == known {
			return true
		}
	}
	return false
}

// ErrNotFound is returned when a key (or prefix) has no entry.
var ErrNotFound = errors.New("reference entry not found")

// Source is a read-only view of the reference tables.
type Source interface {
	// Lookup returns the multiplier stored for key, or ErrNotFound.
	Lookup(ctx context.Context, table Table, key string) (float64, error)
	// PrefixAverage returns the mean multiplier over every key starting
	// with prefix, or ErrNotFound when no key matches.
	PrefixAverage(ctx context.Context, table Table, prefix string) (float64, error)
}

// Entry is a single row of a reference table.
type Entry struct {
	Table      Table   `json:"table" yaml:"table"`
	Key        string  `json:"key" yaml:"key"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Version    string  `json:"version,omitempty" yaml:"version,omitempty"`
}

// Validate checks that the entry can be stored.
func (e Entry) Validate() error {
	if !e.Table.Valid() {
		return fmt.Errorf("unknown table %q", e.Table)
	}
	if NormalizeKey(e.Key) == "" {
		return fmt.Errorf("%s: empty key", e.Table)
	}
	if math.IsNaN(e.Multiplier) || math.IsInf(e.Multiplier, 0) || e.Multiplier <= 0 {
		return fmt.Errorf("%s/%s: multiplier must be a positive number, got %v", e.Table, e.Key, e.Multiplier)
	}
	return nil
}

// NormalizeKey lower-cases and trims a lookup key and collapses inner
// whitespace so "  Pearl  White" and "pearl white" hit the same row.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}
