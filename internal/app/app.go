// Package app wires configuration into the assessment and rumor services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ernestobalbinse/HurriAid/internal/adapter/filestore"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/gemini"
	kafkaadapter "github.com/ernestobalbinse/HurriAid/internal/adapter/kafka"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/mapbox"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/objectstore"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/postgres"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/ziptable"
	"github.com/ernestobalbinse/HurriAid/internal/config"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/ernestobalbinse/HurriAid/internal/rumor"
	"github.com/jonboulle/clockwork"
)

// App holds the wired services and the resources they own.
type App struct {
	Coordinator *pipeline.Coordinator
	Rumors      *rumor.Checker

	closers []func() error
}

// New builds the services from cfg. Online sources are only created when
// their settings are present; offline mode always uses the data directory.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*App, error) {
	a := &App{}

	files := filestore.New(cfg.DataDir, logger)
	table, err := ziptable.Load(filepath.Join(cfg.DataDir, ziptable.FileName), metrics)
	if err != nil {
		return nil, err
	}
	logger.Info("zip table loaded", "entries", table.Len(), "data_dir", cfg.DataDir)

	sources := pipeline.SourceSet{
		Offline: pipeline.Sources{Advisory: files, Shelters: files, ZIPs: table},
	}

	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		chain := domain.ChainResolver{table, client}
		sources.Online.ZIPs = mapbox.NewCachedResolver(chain, cfg.ZIPCacheSize, metrics)
		metrics.MapboxEnabled.Set(1)
		logger.Info("mapbox ZIP geocoding enabled", "cache_size", cfg.ZIPCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		metrics.MapboxEnabled.Set(0)
		logger.Info("mapbox ZIP geocoding disabled")
	}

	if cfg.AdvisoryS3Endpoint != "" {
		store, err := objectstore.New(objectstore.Options{
			Endpoint:  cfg.AdvisoryS3Endpoint,
			AccessKey: cfg.AdvisoryS3AccessKey,
			SecretKey: cfg.AdvisoryS3SecretKey,
			Bucket:    cfg.AdvisoryS3Bucket,
			Key:       cfg.AdvisoryS3Key,
			UseSSL:    cfg.AdvisoryS3UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		sources.Online.Advisory = store
		logger.Info("object store advisory source enabled", "bucket", cfg.AdvisoryS3Bucket, "key", cfg.AdvisoryS3Key)
	}

	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { db.Close(); return nil })
		sources.Online.Shelters = db
		logger.Info("postgres shelter directory enabled")
	}

	oracle := gemini.NewClient(gemini.Options{
		APIKey:    cfg.GoogleAPIKey,
		Model:     cfg.GeminiModel,
		Timeout:   cfg.LLMTimeout,
		Retries:   cfg.LLMRetries,
		RateLimit: cfg.LLMRateLimit,
	}, metrics, logger)
	if !cfg.OracleConfigured() {
		logger.Warn("GOOGLE_API_KEY is not set; risk, checklist, and route results will be unavailable")
	}

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, p.Close)
		publisher = p
		logger.Info("assessment publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	clock := clockwork.NewRealClock()
	a.Coordinator = pipeline.NewCoordinator(
		pipeline.NewWatcher(sources, oracle, clock, logger),
		pipeline.NewChecklistGenerator(oracle),
		pipeline.NewPlanner(oracle),
		publisher,
		clock,
		metrics,
		logger,
	)
	a.Rumors = rumor.NewChecker(oracle, files, cfg.RumorCacheSize, metrics, logger)
	return a, nil
}

// Close releases owned resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}
