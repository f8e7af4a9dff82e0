package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/autoval/autoval/internal/collab"
	"github.com/autoval/autoval/internal/platform"
	"github.com/autoval/autoval/pkg/config"
	"github.com/autoval/autoval/pkg/reftable"
	"github.com/autoval/autoval/pkg/valuation"
)

// loadConfig reads the --config file, or the nearest .autoval/config.yaml.
// Missing files yield defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config", zap.String("path", path))
	return cfg, nil
}

// dbFlags select a SQL database for reference tables.
type dbFlags struct {
	driver string
	dsn    string
}

func (f *dbFlags) register(cmd *cobra.Command, defaultDriver string) {
	cmd.Flags().StringVar(&f.driver, "db-driver", defaultDriver, "Database driver: sqlite or postgres")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Database DSN (sqlite default: ~/.cache/autoval/autoval.db)")
}

// open connects to the database and applies pending migrations.
func (f *dbFlags) open() (*sql.DB, error) {
	dsn := f.dsn
	if dsn == "" {
		if f.driver != platform.DriverSQLite {
			return nil, fmt.Errorf("--dsn is required for driver %q", f.driver)
		}
		dsn = config.DatabasePath()
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := platform.Open(f.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := platform.AutoMigrate(db, f.driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// tableSource picks where reference tables come from: a database when a
// driver is given, else a YAML file (flag, then config), else the bundled
// seed. The returned close func is never nil.
func tableSource(cfg *config.Config, tablesPath string, db dbFlags) (reftable.Source, func(), error) {
	noop := func() {}
	if db.driver != "" {
		conn, err := db.open()
		if err != nil {
			return nil, noop, err
		}
		src := reftable.NewCache(reftable.NewSQLSource(conn), cfg.Tables.CacheSize, cfg.Tables.CacheTTL)
		return src, func() { conn.Close() }, nil
	}

	path := firstNonEmpty(tablesPath, cfg.Tables.Path)
	if path != "" {
		src, err := reftable.LoadFile(path)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("using reference tables file", zap.String("path", path), zap.String("version", src.Version()))
		return src, noop, nil
	}

	src, err := reftable.Seed()
	if err != nil {
		return nil, noop, err
	}
	return src, noop, nil
}

// collaborators builds HTTP clients for every configured collaborator URL.
func collaborators(cfg *config.Config, deps *valuation.Deps) error {
	c := cfg.Collaborators
	opts := collab.Options{APIKey: c.APIKey, RatePerSecond: c.RatePerSecond}

	if c.PhotoURL != "" {
		p, err := collab.NewPhotoClient(c.PhotoURL, opts)
		if err != nil {
			return fmt.Errorf("photo collaborator: %w", err)
		}
		deps.Photos = p
	}
	if c.MarketURL != "" {
		m, err := collab.NewMarketClient(c.MarketURL, opts)
		if err != nil {
			return fmt.Errorf("market collaborator: %w", err)
		}
		deps.Demand = m
	}
	if c.PricingURL != "" {
		p, err := collab.NewPricingClient(c.PricingURL, opts)
		if err != nil {
			return fmt.Errorf("pricing collaborator: %w", err)
		}
		deps.Prices = p
	}
	return nil
}

func newEngine(cfg *config.Config, src reftable.Source) (*valuation.Engine, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	deps := valuation.Deps{Tables: src, Logger: logger}
	if err := collaborators(cfg, &deps); err != nil {
		return nil, err
	}
	return valuation.New(opts, deps)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
