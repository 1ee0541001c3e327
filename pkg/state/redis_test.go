// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"testing"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/holiman/uint256"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func testSnapshot() mission.Snapshot {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	id := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	data := mission.NewData(id, mission.Params{
		Type:                   mission.TypeDaily,
		Name:                   "daily run",
		EnrollmentStart:        now,
		EnrollmentEnd:          now.Add(time.Hour),
		MissionStart:           now.Add(2 * time.Hour),
		MissionEnd:             now.Add(3 * time.Hour),
		MissionRounds:          5,
		RoundPauseDuration:     time.Minute,
		LastRoundPauseDuration: 2 * time.Minute,
		EnrollmentAmount:       uint256.NewInt(100),
		EnrollmentMinPlayers:   3,
		EnrollmentMaxPlayers:   10,
	}, uint256.NewInt(50), now)
	data.Players = append(data.Players, mission.PlayerRecord{
		Address:    common.HexToAddress("0x0000000000000000000000000000000000001001"),
		EnrolledAt: now.Add(time.Minute),
		Won:        new(uint256.Int),
	})
	return mission.Snapshot{Data: data, Status: mission.StatusEnrolling}
}

func TestLoadMission_Missing(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisStore(client, 0)
	_, ok, err := store.LoadMission(context.Background(), common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("LoadMission() error = %v", err)
	}
	if ok {
		t.Error("LoadMission() found a snapshot that was never saved")
	}
}

func TestSaveAndLoadMission(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisStore(client, 0)
	snap := testSnapshot()

	if err := store.SaveMission(ctx, snap); err != nil {
		t.Fatalf("SaveMission() error = %v", err)
	}

	loaded, ok, err := store.LoadMission(ctx, snap.ID)
	if err != nil || !ok {
		t.Fatalf("LoadMission() = %v, %v", ok, err)
	}
	if loaded.Status != mission.StatusEnrolling {
		t.Errorf("Status = %s, expected Enrolling", loaded.Status)
	}
	if loaded.Type != mission.TypeDaily || loaded.Name != "daily run" {
		t.Errorf("loaded %s %q, expected Daily %q", loaded.Type, loaded.Name, "daily run")
	}
	if loaded.CroInitial.Uint64() != 50 {
		t.Errorf("CroInitial = %s, expected 50", loaded.CroInitial.Dec())
	}
	if len(loaded.Players) != 1 || loaded.Players[0].Address != snap.Players[0].Address {
		t.Errorf("Players = %+v, expected the saved player", loaded.Players)
	}
	if !loaded.MissionEnd.Equal(snap.MissionEnd) {
		t.Errorf("MissionEnd = %v, expected %v", loaded.MissionEnd, snap.MissionEnd)
	}
}

func TestSaveMission_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisStore(client, 0)
	snap := testSnapshot()
	if err := store.SaveMission(context.Background(), snap); err != nil {
		t.Fatalf("SaveMission() error = %v", err)
	}

	if ttl := mr.TTL(makeKey(snap.ID)); ttl != DefaultTTL {
		t.Errorf("TTL = %v, expected %v", ttl, DefaultTTL)
	}

	mr.FastForward(DefaultTTL + time.Second)
	if _, ok, _ := store.LoadMission(context.Background(), snap.ID); ok {
		t.Error("snapshot still present after TTL")
	}
}

func TestLoadMission_Corrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	id := common.HexToAddress("0x02")
	if err := mr.Set(makeKey(id), "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	store := NewRedisStore(client, 0)
	if _, _, err := store.LoadMission(context.Background(), id); err == nil {
		t.Error("LoadMission() of corrupt value expected error")
	}
}

func TestDeleteMission(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Hour)
	snap := testSnapshot()
	_ = store.SaveMission(ctx, snap)

	if err := store.DeleteMission(ctx, snap.ID); err != nil {
		t.Fatalf("DeleteMission() error = %v", err)
	}
	if mr.Exists(makeKey(snap.ID)) {
		t.Error("key still exists after DeleteMission()")
	}
}

func TestSaveAndLoadStats(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisStore(client, 0)

	if _, ok, err := store.LoadStats(ctx); err != nil || ok {
		t.Fatalf("LoadStats() on empty store = %v, %v", ok, err)
	}

	stats := registry.Stats{
		Missions:     3,
		SuccessCount: 1,
		FailureCount: 1,
		OwnerEarned:  uint256.NewInt(12),
		Reserves: map[string]*uint256.Int{
			mission.TypeDaily.String(): uint256.NewInt(36),
		},
		LedgerEntries:  2,
		LedgerSequence: 9,
	}
	if err := store.SaveStats(ctx, stats); err != nil {
		t.Fatalf("SaveStats() error = %v", err)
	}

	loaded, ok, err := store.LoadStats(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadStats() = %v, %v", ok, err)
	}
	if loaded.Missions != 3 || loaded.SuccessCount != 1 || loaded.LedgerSequence != 9 {
		t.Errorf("LoadStats() = %+v", loaded)
	}
	if loaded.Reserves["Daily"].Uint64() != 36 {
		t.Errorf("Reserves[Daily] = %v, expected 36", loaded.Reserves["Daily"])
	}
	if mr.TTL(StatsKey) != 0 {
		t.Errorf("stats TTL = %v, expected none", mr.TTL(StatsKey))
	}
}

func TestHealthChecker(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client, 0)

	h := NewHealthChecker(store)
	if !h.IsHealthy(ctx) {
		t.Error("IsHealthy() = false with an empty mirror")
	}

	if err := store.SaveStats(ctx, registry.Stats{Missions: 2}); err != nil {
		t.Fatalf("SaveStats() error = %v", err)
	}
	if err := h.Check(ctx); err != nil {
		t.Errorf("Check() with mirrored stats error = %v", err)
	}

	mr.Close()
	if h.IsHealthy(ctx) {
		t.Error("IsHealthy() = true after miniredis closed")
	}
}

func TestHealthChecker_UnreadableStats(t *testing.T) {
	tests := []struct {
		name  string
		write func(mr *miniredis.Miniredis)
	}{
		{
			name:  "corrupt json",
			write: func(mr *miniredis.Miniredis) { _ = mr.Set(StatsKey, "{not json") },
		},
		{
			name:  "wrong key type",
			write: func(mr *miniredis.Miniredis) { _, _ = mr.Push(StatsKey, "x") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mr := setupTestRedis(t)
			defer mr.Close()
			tt.write(mr)

			h := NewHealthChecker(NewRedisStore(client, 0))
			if h.IsHealthy(context.Background()) {
				t.Error("IsHealthy() = true with unreadable stats")
			}
		})
	}
}
