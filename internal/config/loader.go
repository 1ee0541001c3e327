// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	return Parse()
}

// Parse reads the current environment into a Config without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort)
	}

	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.GRPCPort == c.MetricsPort {
		return fmt.Errorf("GRPC_PORT and METRICS_PORT must differ, both are %d", c.GRPCPort)
	}

	if c.RedisMaxRetries < 0 {
		return fmt.Errorf("invalid REDIS_MAX_RETRIES: %d (must not be negative)", c.RedisMaxRetries)
	}

	if c.RedisRetryDelayMs < 0 {
		return fmt.Errorf("invalid REDIS_RETRY_DELAY_MS: %d (must not be negative)", c.RedisRetryDelayMs)
	}

	if c.SnapshotTTLHours < 1 {
		return fmt.Errorf("invalid SNAPSHOT_TTL_HOURS: %d (must be positive)", c.SnapshotTTLHours)
	}

	if c.KeeperEnabled && c.KeeperIntervalSeconds < 1 {
		return fmt.Errorf("invalid KEEPER_INTERVAL_SECONDS: %d (must be positive)", c.KeeperIntervalSeconds)
	}

	if c.ConfigPath == "" {
		return fmt.Errorf("CONFIG_PATH is required")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisRetryDelay returns the initial delay between Redis connection attempts.
func (c *Config) RedisRetryDelay() time.Duration {
	return time.Duration(c.RedisRetryDelayMs) * time.Millisecond
}

// KeeperInterval returns the time between upkeep passes.
func (c *Config) KeeperInterval() time.Duration {
	return time.Duration(c.KeeperIntervalSeconds) * time.Second
}

// SnapshotTTL returns how long mission snapshots stay in Redis.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLHours) * time.Hour
}
