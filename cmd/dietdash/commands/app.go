package commands

import (
	"context"
	"fmt"

	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/internal/query"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/logger"
)

// app holds the components shared by the serving commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	store   store.Store
	cache   *freshness.Cache
	view    *query.View
}

// newApp wires config, store, freshness cache and query view
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)
	m := metrics.New()

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cache := freshness.New(freshness.Options{
		Source:       freshness.NewFileSource(cfg.Dataset.Path),
		Store:        st,
		ArtifactPath: cfg.Dataset.CleanedPath,
		ReadTimeout:  cfg.Dataset.ReadTimeout,
		Metrics:      m,
		Logger:       log,
	})

	view := query.NewView(query.ViewOptions{
		PageSize:  cfg.Dashboard.PageSize,
		MemoSize:  cfg.Dashboard.InsightsCacheSize,
		MemoTTL:   cfg.Dashboard.InsightsCacheTTL,
		Aggregate: cache,
		Metrics:   m,
		Logger:    log,
	})

	return &app{cfg: cfg, log: log, metrics: m, store: st, cache: cache, view: view}, nil
}

// Close releases the store
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}
