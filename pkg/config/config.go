// Package config handles loading and managing autoval configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/autoval/autoval/pkg/valuation"
)

// Config is the top-level configuration for autoval.
type Config struct {
	Valuation     ValuationConfig     `yaml:"valuation"`
	Tables        TablesConfig        `yaml:"tables"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
}

// ValuationConfig tunes the valuation engine. Zero values in the file do
// not override defaults; see Load.
type ValuationConfig struct {
	LookupTimeout       time.Duration `yaml:"lookup_timeout"`
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout"`

	BaselineConfidence int `yaml:"baseline_confidence"`
	LookupBonus        int `yaml:"lookup_bonus"`
	UnavailablePenalty int `yaml:"unavailable_penalty"`

	MaxRangePercent float64 `yaml:"max_range_percent"`
	MinRangePercent float64 `yaml:"min_range_percent"`
	LowConfidence   int     `yaml:"low_confidence"`
	HighConfidence  int     `yaml:"high_confidence"`

	FeaturePenaltyThreshold int     `yaml:"feature_penalty_threshold"`
	FeaturePenaltyStep      float64 `yaml:"feature_penalty_step"`
	FeaturePenaltyMax       float64 `yaml:"feature_penalty_max"`

	FrameDamagePercent      float64 `yaml:"frame_damage_percent"`
	MechanicalIssuesPercent float64 `yaml:"mechanical_issues_percent"`

	PhotoWeight       float64 `yaml:"photo_weight"`
	PhotoDefaultScore float64 `yaml:"photo_default_score"`
	OpenRecallDefault float64 `yaml:"open_recall_default"`

	MinYear       int `yaml:"min_year"`
	MaxYearsAhead int `yaml:"max_years_ahead"`
}

// TablesConfig locates the reference tables.
type TablesConfig struct {
	Path      string        `yaml:"path"`       // YAML table file; empty means the bundled seed
	CacheSize int           `yaml:"cache_size"` // LRU entries in front of a SQL source
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// CollaboratorsConfig holds base URLs of the external services. An empty URL
// disables that collaborator.
type CollaboratorsConfig struct {
	PhotoURL      string  `yaml:"photo_url"`
	MarketURL     string  `yaml:"market_url"`
	PricingURL    string  `yaml:"pricing_url"`
	APIKey        string  `yaml:"api_key"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	o := valuation.DefaultOptions()
	return &Config{
		Valuation: ValuationConfig{
			LookupTimeout:           o.LookupTimeout,
			CollaboratorTimeout:     o.CollaboratorTimeout,
			BaselineConfidence:      o.BaselineConfidence,
			LookupBonus:             o.LookupBonus,
			UnavailablePenalty:      o.UnavailablePenalty,
			MaxRangePercent:         o.MaxRangePercent,
			MinRangePercent:         o.MinRangePercent,
			LowConfidence:           o.LowConfidence,
			HighConfidence:          o.HighConfidence,
			FeaturePenaltyThreshold: o.FeaturePenaltyThreshold,
			FeaturePenaltyStep:      o.FeaturePenaltyStep,
			FeaturePenaltyMax:       o.FeaturePenaltyMax,
			FrameDamagePercent:      o.FrameDamagePercent,
			MechanicalIssuesPercent: o.MechanicalIssuesPercent,
			PhotoWeight:             o.PhotoWeight,
			PhotoDefaultScore:       o.PhotoDefaultScore,
			OpenRecallDefault:       o.OpenRecallDefault,
			MinYear:                 o.MinYear,
			MaxYearsAhead:           o.MaxYearsAhead,
		},
		Tables: TablesConfig{
			CacheSize: 4096,
			CacheTTL:  10 * time.Minute,
		},
		Collaborators: CollaboratorsConfig{
			RatePerSecond: 10,
		},
	}
}

// Load reads a config file from the given path. Keys present in the file
// override the defaults; if the file does not exist, it returns the
// default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Tables.Path != "" && !filepath.IsAbs(cfg.Tables.Path) {
		// Relative table paths are relative to the config file.
		cfg.Tables.Path = filepath.Join(filepath.Dir(path), cfg.Tables.Path)
	}

	return cfg, nil
}

// Options converts the valuation section into validated engine options.
func (c *Config) Options() (valuation.Options, error) {
	v := c.Valuation
	o := valuation.Options{
		LookupTimeout:           v.LookupTimeout,
		CollaboratorTimeout:     v.CollaboratorTimeout,
		BaselineConfidence:      v.BaselineConfidence,
		LookupBonus:             v.LookupBonus,
		UnavailablePenalty:      v.UnavailablePenalty,
		MaxRangePercent:         v.MaxRangePercent,
		MinRangePercent:         v.MinRangePercent,
		LowConfidence:           v.LowConfidence,
		HighConfidence:          v.HighConfidence,
		FeaturePenaltyThreshold: v.FeaturePenaltyThreshold,
		FeaturePenaltyStep:      v.FeaturePenaltyStep,
		FeaturePenaltyMax:       v.FeaturePenaltyMax,
		FrameDamagePercent:      v.FrameDamagePercent,
		MechanicalIssuesPercent: v.MechanicalIssuesPercent,
		PhotoWeight:             v.PhotoWeight,
		PhotoDefaultScore:       v.PhotoDefaultScore,
		OpenRecallDefault:       v.OpenRecallDefault,
		MinYear:                 v.MinYear,
		MaxYearsAhead:           v.MaxYearsAhead,
	}
	if err := o.Validate(); err != nil {
		return valuation.Options{}, fmt.Errorf("valuation config: %w", err)
	}
	return o, nil
}

// FindConfigFile looks for .autoval/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".autoval", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// DataDir returns the directory for local state (the default SQLite
// database and archived breakdowns): ~/.cache/autoval.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "autoval")
}

// DatabasePath returns the default SQLite database location.
func DatabasePath() string {
	return filepath.Join(DataDir(), "autoval.db")
}

// ArchiveDir returns the default local archive directory.
func ArchiveDir() string {
	return filepath.Join(DataDir(), "valuations")
}
