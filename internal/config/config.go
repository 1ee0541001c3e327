// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// Factory settings that describe the deployment (owner, authorized
// operators, rate limits) live in the YAML file at ConfigPath, not here.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"MissionFactoryService"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// Snapshots of missions older than this expire from Redis
	SnapshotTTLHours int `env:"SNAPSHOT_TTL_HOURS" envDefault:"2160"`

	// ============================================================
	// Factory configuration
	// ============================================================
	ConfigPath string `env:"CONFIG_PATH" envDefault:"config/factory.yaml"`

	// Ethereum JSON-RPC endpoint used to detect contract callers. When
	// empty, only the contracts listed in the factory config are rejected.
	EthRPCURL string `env:"ETH_RPC_URL"`

	// ============================================================
	// Upkeep configuration
	// ============================================================
	// The keeper arms or fails missions after enrollment, retries
	// failed refunds and retries failed settlements.
	KeeperEnabled         bool `env:"KEEPER_ENABLED" envDefault:"true"`
	KeeperIntervalSeconds int  `env:"KEEPER_INTERVAL_SECONDS" envDefault:"30"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}
