package reftable

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// MemorySource is an immutable in-memory Source.
type MemorySource struct {
	version string
	tables  map[Table]map[string]float64
}

// NewMemorySource builds a MemorySource from entries. Entries are validated;
// later duplicates override earlier ones.
func NewMemorySource(version string, entries []Entry) (*MemorySource, error) {
	s := &MemorySource{
		version: version,
		tables:  make(map[Table]map[string]float64),
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		t, ok := s.tables[e.Table]
		if !ok {
			t = make(map[string]float64)
			s.tables[e.Table] = t
		}
		t[NormalizeKey(e.Key)] = e.Multiplier
	}
	return s, nil
}

// Version returns the reference data version the source was loaded from.
func (s *MemorySource) Version() string { return s.version }

// Lookup implements Source.
func (s *MemorySource) Lookup(_ context.Context, table Table, key string) (float64, error) {
	v, ok := s.tables[table][NormalizeKey(key)]
	if !ok {
		return 0, fmt.Errorf("%s/%s: %w", table, key, ErrNotFound)
	}
	return v, nil
}

// PrefixAverage implements Source.
func (s *MemorySource) PrefixAverage(_ context.Context, table Table, prefix string) (float64, error) {
	prefix = NormalizeKey(prefix)
	var sum float64
	var n int
	for k, v := range s.tables[table] {
		if strings.HasPrefix(k, prefix) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%s/%s*: %w", table, prefix, ErrNotFound)
	}
	return sum / float64(n), nil
}

// Entries returns every row sorted by table then key.
func (s *MemorySource) Entries() []Entry {
	var out []Entry
	for table, rows := range s.tables {
		for k, v := range rows {
			out = append(out, Entry{Table: table, Key: k, Multiplier: v, Version: s.version})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// fileFormat is the on-disk YAML layout:
//
//	version: "2026.10"
//	tables:
//	  regional_demand:
//	    "90210": 1.08
type fileFormat struct {
	Version string                        `yaml:"version"`
	Tables  map[Table]map[string]float64 `yaml:"tables"`
}

// Parse decodes a YAML reference-table document.
func Parse(data []byte) (*MemorySource, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing reference tables: %w", err)
	}
	var entries []Entry
	for table, rows := range f.Tables {
		for k, v := range rows {
			entries = append(entries, Entry{Table: table, Key: k, Multiplier: v, Version: f.Version})
		}
	}
	return NewMemorySource(f.Version, entries)
}

// LoadFile reads a YAML reference-table document from path.
func LoadFile(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference tables: %w", err)
	}
	return Parse(data)
}

// Seed returns the reference tables bundled with the binary.
func Seed() (*MemorySource, error) {
	return Parse(seedYAML)
}
