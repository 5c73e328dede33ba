// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tejzpr/mimir-graph/internal/api"
	"github.com/tejzpr/mimir-graph/internal/auth"
	"github.com/tejzpr/mimir-graph/internal/config"
	"github.com/tejzpr/mimir-graph/internal/database"
	"github.com/tejzpr/mimir-graph/internal/graph"
	"github.com/tejzpr/mimir-graph/internal/layout"
	"github.com/tejzpr/mimir-graph/internal/loader"
	"github.com/tejzpr/mimir-graph/internal/memgraph"
	"github.com/tejzpr/mimir-graph/internal/observability"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// errNoSource is returned when neither an API URL nor an input file is set
var errNoSource = errors.New("no document source: set api.base_url, MIMIR_GRAPH_API_URL, --api-url or --input")

// app holds the process-wide dependencies of one command run
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Collector
	db      *gorm.DB
	store   *database.Store
}

// loadConfig resolves configuration from file, then environment, then flags
func loadConfig(f globalFlags, logger *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFromPath(f.configPath)
	} else {
		if err := config.EnsureConfigDir(); err != nil {
			return nil, err
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	config.ApplyEnvOverrides(cfg, logger)
	applyCLIOverrides(cfg, f)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag overrides to configuration
func applyCLIOverrides(cfg *config.Config, f globalFlags) {
	if f.apiURL != "" {
		cfg.API.BaseURL = f.apiURL
	}
	if f.dbType != "" {
		cfg.Database.Type = f.dbType
		cfg.Database.Enabled = true
	}
	if f.dbPath != "" {
		cfg.Database.SQLitePath = f.dbPath
	}
	if f.dbDSN != "" {
		cfg.Database.PostgresDSN = f.dbDSN
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if len(f.tags) > 0 {
		cfg.Graph.ContainerTags = f.tags
	}
}

func newApp(f globalFlags) (*app, error) {
	cfg, err := loadConfig(f, nil)
	if err != nil {
		return nil, err
	}

	log, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	if cfg.Metrics.Enabled {
		a.metrics = observability.NewCollector(cfg.Metrics.Namespace)
	}

	if cfg.Database.Enabled {
		db, err := database.Open(databaseConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open position store: %w", err)
		}
		a.db = db
		a.store = database.NewStore(db)
		log.Info("Position store opened", zap.String("type", cfg.Database.Type))
	}
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.logger.Warn("Failed to close position store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// fetcher returns the document source: a local file when input is set,
// otherwise the documents API behind retries and a circuit breaker
func (a *app) fetcher(input string) (api.Fetcher, error) {
	if input != "" {
		return api.LoadStaticFetcher(input)
	}
	if a.cfg.API.BaseURL == "" {
		return nil, errNoSource
	}

	var tokens auth.TokenSource = auth.EnvToken{Variable: a.cfg.API.TokenEnv}
	if a.cfg.API.Token != "" {
		tokens = auth.StaticToken(a.cfg.API.Token)
	}

	opts := []api.ClientOption{
		api.WithTimeout(time.Duration(a.cfg.API.TimeoutSeconds) * time.Second),
		api.WithLogger(a.logger),
	}
	if b := a.cfg.API.Breaker; b.Enabled {
		opts = append(opts, api.WithCircuitBreaker("documents-api", b.ConsecutiveFailures, time.Duration(b.CooldownSeconds)*time.Second))
	}

	client := api.NewClient(a.cfg.API.BaseURL, tokens, opts...)
	return api.NewRetryingFetcher(client, retryPolicy(a.cfg), a.logger), nil
}

// newInstance loads the first page from fetcher and starts a graph
func (a *app) newInstance(ctx context.Context, fetcher api.Fetcher, manual bool) (*memgraph.Instance, error) {
	loaderOpts := []loader.Option{loader.WithLogger(a.logger)}
	if a.metrics != nil {
		loaderOpts = append(loaderOpts, loader.WithObserver(a.metrics))
	}

	opts := graphOptions(a.cfg)
	opts.ManualTicks = manual

	instOpts := []memgraph.Option{
		memgraph.WithOptions(opts),
		memgraph.WithLogger(a.logger),
	}
	if a.metrics != nil {
		instOpts = append(instOpts, memgraph.WithMetrics(a.metrics))
	}
	if a.store != nil {
		instOpts = append(instOpts, memgraph.WithStore(a.store))
	}
	return memgraph.New(ctx, loader.New(fetcher, loaderOpts...), instOpts...)
}

func databaseConfig(cfg *config.Config) *database.Config {
	return &database.Config{
		Type:        cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    logger.Silent,
	}
}

func retryPolicy(cfg *config.Config) api.RetryPolicy {
	return api.RetryPolicy{
		MaxTries:        cfg.API.Retry.MaxTries,
		InitialInterval: time.Duration(cfg.API.Retry.InitialIntervalMS) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.API.Retry.MaxIntervalMS) * time.Millisecond,
	}
}

func graphOptions(cfg *config.Config) memgraph.Options {
	g := cfg.Graph
	opts := memgraph.DefaultOptions()
	opts.Filter = loader.Filter{
		ContainerTags: g.ContainerTags,
		Sort:          g.Sort,
		Order:         g.Order,
		PageSize:      g.PageSize,
	}
	opts.Selector = graph.SelectorOptions{
		Threshold:            g.SimilarityThreshold,
		MaxComparisonsPerDoc: g.MaxComparisonsPerDoc,
		Strategy:             graph.Strategy(g.Strategy),
	}
	opts.Layout = layout.DefaultOptions()
	opts.Layout.Seed = g.Seed
	opts.TickInterval = time.Duration(g.TickIntervalMS) * time.Millisecond
	opts.LoadMoreThreshold = g.LoadMoreThreshold
	return opts
}
