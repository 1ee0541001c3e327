// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the default TTL for mirrored mission snapshots (90 days)
	DefaultTTL = 90 * 24 * time.Hour
	// MissionKeyPrefix is the prefix for all mission snapshot keys
	MissionKeyPrefix = "mission_factory:mission:"
	// StatsKey holds the registry summary
	StatsKey = "mission_factory:stats"
)

// RedisStore mirrors mission snapshots and registry counters into Redis so
// read-side services can serve them without calling the factory.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a new mirror. A zero ttl uses DefaultTTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// makeKey creates a Redis key for a mission
func makeKey(id common.Address) string {
	return fmt.Sprintf("%s%s", MissionKeyPrefix, id.Hex())
}

// SaveMission stores the snapshot of one mission
func (s *RedisStore) SaveMission(ctx context.Context, snap mission.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		logrus.Errorf("failed to marshal mission %s: %v", snap.ID.Hex(), err)
		return fmt.Errorf("failed to marshal mission: %w", err)
	}

	if err := s.client.Set(ctx, makeKey(snap.ID), data, s.ttl).Err(); err != nil {
		logrus.Errorf("failed to set mission %s: %v", snap.ID.Hex(), err)
		return fmt.Errorf("failed to set mission: %w", err)
	}

	logrus.Debugf("mirrored mission %s at status %s", snap.ID.Hex(), snap.Status)
	return nil
}

// LoadMission retrieves a mirrored snapshot. The bool is false when no
// snapshot exists.
func (s *RedisStore) LoadMission(ctx context.Context, id common.Address) (mission.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, makeKey(id)).Result()
	if err == redis.Nil {
		return mission.Snapshot{}, false, nil
	}
	if err != nil {
		return mission.Snapshot{}, false, fmt.Errorf("failed to get mission: %w", err)
	}

	var snap mission.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		logrus.Errorf("failed to unmarshal mission %s: %v", id.Hex(), err)
		return mission.Snapshot{}, false, fmt.Errorf("failed to unmarshal mission: %w", err)
	}
	return snap, true, nil
}

// SaveStats stores the registry summary without expiry
func (s *RedisStore) SaveStats(ctx context.Context, stats registry.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := s.client.Set(ctx, StatsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set stats: %w", err)
	}
	return nil
}

// LoadStats retrieves the registry summary
func (s *RedisStore) LoadStats(ctx context.Context) (registry.Stats, bool, error) {
	data, err := s.client.Get(ctx, StatsKey).Result()
	if err == redis.Nil {
		return registry.Stats{}, false, nil
	}
	if err != nil {
		return registry.Stats{}, false, fmt.Errorf("failed to get stats: %w", err)
	}

	var stats registry.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return registry.Stats{}, false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return stats, true, nil
}

// DeleteMission removes a mirrored snapshot
func (s *RedisStore) DeleteMission(ctx context.Context, id common.Address) error {
	if err := s.client.Del(ctx, makeKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}
	return nil
}
