// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports whether the mission mirror can be served. Redis must
// answer and the registry summary, once written, must still decode.
type HealthChecker struct {
	store *RedisStore
}

func NewHealthChecker(store *RedisStore) *HealthChecker {
	return &HealthChecker{store: store}
}

// Check pings Redis and reads back the mirrored stats. A missing stats key
// is healthy since nothing has been mirrored yet.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.store.client.Ping(ctx).Err(); err != nil {
		logrus.Errorf("mission mirror health check failed: %v", err)
		return fmt.Errorf("redis unreachable: %w", err)
	}

	stats, ok, err := h.store.LoadStats(ctx)
	if err != nil {
		logrus.Errorf("mission mirror holds unreadable stats at %s: %v", StatsKey, err)
		return fmt.Errorf("mission mirror unreadable: %w", err)
	}

	if ok {
		logrus.Debugf("mission mirror healthy, %d missions mirrored", stats.Missions)
	}
	return nil
}

func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
