package commands

import (
	"context"
	"fmt"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/health"
	"github.com/wonny/evlq/internal/recorder"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/internal/store"
	"github.com/wonny/evlq/internal/validation"
	"github.com/wonny/evlq/pkg/config"
	"github.com/wonny/evlq/pkg/logger"
	"github.com/wonny/evlq/pkg/redis"
)

// cacheNamespace prefixes every redis key written by evlq
const cacheNamespace = "evlq"

// app holds the wired components shared by the subcommands
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     contracts.Store
	backend   string
	registry  *registry.Registry
	validator *validation.Validator
	recorder  *recorder.Recorder
	redis     *redis.Client
	cache     *redis.Cache
	monitor   *health.Monitor
}

// bootstrap loads config and wires store, registry, validator, recorder,
// cache and health monitor in dependency order.
// ⭐ SSOT: 컴포넌트 조립은 여기서만
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if contractsFile != "" {
		cfg.Quality.ContractsFile = contractsFile
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	a.registry = registry.NewDefault()
	if cfg.Quality.ContractsFile != "" {
		n, err := a.registry.RegisterFile(cfg.Quality.ContractsFile)
		if err != nil {
			return nil, fmt.Errorf("load contracts: %w", err)
		}
		log.WithFields(map[string]interface{}{
			"file":  cfg.Quality.ContractsFile,
			"count": n,
		}).Info("Registered contracts from file")
	}

	var opts []validation.Option
	if cfg.Quality.ChecksEnabled {
		checks, err := validation.NewCheckEvaluator()
		if err != nil {
			return nil, fmt.Errorf("init quality checks: %w", err)
		}
		opts = append(opts, validation.WithCheckEvaluator(checks))
	}
	a.validator = validation.NewValidator(a.registry, opts...)

	a.store, a.backend, err = store.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.recorder = recorder.New(a.store, log, recorder.WithWriteTimeout(cfg.Database.WriteTimeout))

	// redis is optional: a failed connection degrades to no cache
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		a.redis = redis.Disabled()
	}
	a.cache = redis.NewCache(a.redis, cacheNamespace)

	th := health.DefaultThresholds
	if cfg.Quality.ConsecutiveFailures > 0 {
		th.ConsecutiveFailures = cfg.Quality.ConsecutiveFailures
	}
	a.monitor = health.NewMonitor(a.registry, a.recorder, a.cache, log,
		health.WithThresholds(th),
		health.WithWindow(cfg.Quality.HealthWindow),
		health.WithCacheTTL(cfg.Quality.HealthCacheTTL),
	)

	return a, nil
}

// Close releases the store and redis connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}
