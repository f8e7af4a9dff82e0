// Command autovald is the autoval valuation service.
// It serves the valuation REST API and a health check.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/autoval/autoval/internal/api"
	"github.com/autoval/autoval/internal/appraisal"
	"github.com/autoval/autoval/internal/archive"
	"github.com/autoval/autoval/internal/collab"
	"github.com/autoval/autoval/internal/history"
	"github.com/autoval/autoval/internal/logging"
	"github.com/autoval/autoval/internal/notify"
	"github.com/autoval/autoval/internal/platform"
	"github.com/autoval/autoval/pkg/config"
	"github.com/autoval/autoval/pkg/reftable"
	"github.com/autoval/autoval/pkg/valuation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadServiceConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := platform.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := platform.AutoMigrate(db, cfg.Database.Driver); err != nil {
		return err
	}

	appCfg := config.DefaultConfig()
	if cfg.ConfigPath != "" {
		if appCfg, err = config.Load(cfg.ConfigPath); err != nil {
			return err
		}
	}
	opts, err := appCfg.Options()
	if err != nil {
		return err
	}

	tables := reftable.NewSQLSource(db)
	if cfg.Database.SeedTables {
		if err := seedTables(ctx, tables, logger); err != nil {
			return err
		}
	}

	deps := valuation.Deps{
		Tables: reftable.NewCache(tables, appCfg.Tables.CacheSize, appCfg.Tables.CacheTTL),
		Logger: logger,
	}
	if err := wireCollaborators(cfg.Collaborators, appCfg.Collaborators, &deps); err != nil {
		return err
	}
	engine, err := valuation.New(opts, deps)
	if err != nil {
		return err
	}

	store, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL, "autovald")
		if err != nil {
			return err
		}
		defer nc.Drain()
		publisher = notify.NewNATSPublisher(nc, cfg.NATS.Subject)
	}

	// Initialize services
	svc := appraisal.NewService(engine, archive.New(store), history.NewService(db), publisher, logger)

	mux := http.NewServeMux()
	api.NewHandler(svc, db, logger).RegisterRoutes(mux)

	var limiter *rate.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}
	handler := api.Chain(mux,
		api.CORS,
		api.RateLimit(limiter),
		api.APIKeyAuth(cfg.Server.APIKey),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: otelhttp.NewHandler(handler, "autovald"),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting autovald", zap.String("addr", srv.Addr),
			zap.String("archive", cfg.Archive.Backend), zap.Bool("notifications", cfg.NATS.URL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}

// seedTables imports the bundled reference tables into an empty database.
func seedTables(ctx context.Context, tables *reftable.SQLSource, logger *zap.Logger) error {
	for _, t := range reftable.AllTables {
		rows, err := tables.List(ctx, t)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			return nil
		}
	}
	seed, err := reftable.Seed()
	if err != nil {
		return err
	}
	n, err := tables.Upsert(ctx, seed.Entries())
	if err != nil {
		return fmt.Errorf("seed reference tables: %w", err)
	}
	logger.Info("seeded reference tables", zap.Int("rows", n), zap.String("version", seed.Version()))
	return nil
}

func openArchive(ctx context.Context, cfg ArchiveConfig) (archive.Store, error) {
	switch cfg.Backend {
	case "s3":
		return archive.NewS3Store(ctx, archive.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "gcs":
		return archive.NewGCSStore(ctx, cfg.GCSBucket)
	default:
		return archive.NewLocalStore(cfg.LocalPath), nil
	}
}

// wireCollaborators builds collaborator clients. Environment values win
// over the YAML config.
func wireCollaborators(envCfg CollaboratorsConfig, fileCfg config.CollaboratorsConfig, deps *valuation.Deps) error {
	opts := collab.Options{
		APIKey:        firstNonEmpty(envCfg.APIKey, fileCfg.APIKey),
		RatePerSecond: fileCfg.RatePerSecond,
	}
	if u := firstNonEmpty(envCfg.PhotoURL, fileCfg.PhotoURL); u != "" {
		c, err := collab.NewPhotoClient(u, opts)
		if err != nil {
			return fmt.Errorf("photo collaborator: %w", err)
		}
		deps.Photos = c
	}
	if u := firstNonEmpty(envCfg.MarketURL, fileCfg.MarketURL); u != "" {
		c, err := collab.NewMarketClient(u, opts)
		if err != nil {
			return fmt.Errorf("market collaborator: %w", err)
		}
		deps.Demand = c
	}
	if u := firstNonEmpty(envCfg.PricingURL, fileCfg.PricingURL); u != "" {
		c, err := collab.NewPricingClient(u, opts)
		if err != nil {
			return fmt.Errorf("pricing collaborator: %w", err)
		}
		deps.Prices = c
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
