// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/AccelByte/extend-mission-factory/pkg/factoryconfig"
	"github.com/AccelByte/extend-mission-factory/pkg/ledger"
	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// InitLimiter creates the enrollment limiter over a Redis history store.
//
// ============================================================
// DEVELOPER: Enrollment caps
// ============================================================
// Caps come from rateLimits in config/factory.yaml. Zero values
// fall back to limiter.DefaultWeeklyLimit and
// limiter.DefaultMonthlyLimit. Operators may change them at
// runtime through the SetRateLimits RPC.
// ============================================================
func InitLimiter(client redis.UniversalClient, fc *factoryconfig.Config) *limiter.Limiter {
	store := limiter.NewRedisHistoryStore(client)
	l := limiter.New(store, fc.RateLimits.Weekly, fc.RateLimits.Monthly)

	weekly, monthly := l.Limits()
	logrus.Infof("initialized enrollment limiter (weekly: %d, monthly: %d)", weekly, monthly)

	return l
}

// InitLedger creates the change ledger with the configured purge settings.
func InitLedger(fc *factoryconfig.Config) *ledger.Ledger {
	l := ledger.New(fc.Ledger.PurgeBatchSize, fc.Ledger.Retention)
	logrus.Infof("initialized change ledger (purge batch: %d, retention: %s)", l.BatchSize(), l.Retention())
	return l
}
