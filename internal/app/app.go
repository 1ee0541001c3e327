// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/internal/bootstrap"
	"github.com/AccelByte/extend-mission-factory/internal/config"
	"github.com/AccelByte/extend-mission-factory/internal/server"
	"github.com/AccelByte/extend-mission-factory/pkg/factoryconfig"
	"github.com/AccelByte/extend-mission-factory/pkg/handler"
	"github.com/AccelByte/extend-mission-factory/pkg/keeper"
	"github.com/AccelByte/extend-mission-factory/pkg/service"
	"github.com/AccelByte/extend-mission-factory/pkg/state"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	keeper            *keeper.Keeper
	redisClient       *redis.Client
	closeDetector     func()
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Redis (limiter history, bank, snapshot mirror)
// 2. Factory config (YAML configuration)
// 3. External services (bank, contract detection, state store)
// 4. Mission components (limiter → ledger → registry → handler, keeper)
// 5. Servers (gRPC, metrics)
// 6. Telemetry (OpenTelemetry tracing)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize Redis
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// ============================================================
	// Step 2: Load factory configuration
	// ============================================================
	factoryConfig, err := factoryconfig.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load factory config from %s: %w", cfg.ConfigPath, err)
	}
	logrus.Infof("loaded factory configuration from %s", cfg.ConfigPath)

	// ============================================================
	// Step 3: Initialize external services
	// ============================================================
	bank := service.NewRedisBank(app.redisClient, service.RedisBankConfig{})
	store := state.NewRedisStore(app.redisClient, cfg.SnapshotTTL())
	healthChecker := state.NewHealthChecker(store)

	detector, closeDetector, err := bootstrap.InitContractDetector(ctx, cfg.EthRPCURL, factoryConfig)
	if err != nil {
		return nil, err
	}
	app.closeDetector = closeDetector

	// ============================================================
	// Step 4: Bootstrap mission components
	// ============================================================
	reg, err := bootstrap.InitRegistry(ctx, factoryConfig, bootstrap.Dependencies{
		Limiter:  bootstrap.InitLimiter(app.redisClient, factoryConfig),
		Ledger:   bootstrap.InitLedger(factoryConfig),
		Bank:     bank,
		Store:    store,
		Detector: detector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init registry: %w", err)
	}

	missionService := handler.NewMissionService(reg, handler.WithArchive(store))

	if cfg.KeeperEnabled {
		app.keeper = keeper.New(reg, cfg.KeeperInterval())
	} else {
		logrus.Info("keeper disabled, upkeep relies on explicit RPC calls")
	}

	// ============================================================
	// Step 5: Setup servers
	// ============================================================
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, missionService, healthChecker)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 6: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0, cfg.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	} else {
		logrus.Info("telemetry disabled")
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.RedisRetryDelay()
	maxRetries := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		_ = client.Close()
		return err
	}

	a.redisClient = client
	logrus.Infof("Redis client initialized (%s)", a.cfg.RedisAddr())
	return nil
}
