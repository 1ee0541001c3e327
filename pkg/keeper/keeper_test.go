package keeper

import (
	"context"
	"testing"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"github.com/AccelByte/extend-mission-factory/pkg/service/mock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	t0        = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	factory   = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	operator  = common.HexToAddress("0x00000000000000000000000000000000000000f3")
	afterEnrl = t0.Add(time.Hour + time.Second)
)

func player(n byte) common.Address {
	return common.BytesToAddress([]byte{0x10, n})
}

type fixture struct {
	reg  *registry.Registry
	bank *mock.Bank
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	bank := mock.NewBank()
	reg, err := registry.New(registry.Config{
		Owner:      owner,
		Factory:    factory,
		Authorized: []common.Address{operator},
		Bank:       bank,
	})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return &fixture{reg: reg, bank: bank}
}

func (f *fixture) createMission(t *testing.T, players int) *mission.Engine {
	t.Helper()
	ctx := context.Background()
	missionStart := t0.Add(2 * time.Hour)

	id, err := f.reg.CreateMission(ctx, operator, mission.Params{
		Type:                   mission.TypeDaily,
		Name:                   "daily",
		EnrollmentStart:        t0,
		EnrollmentEnd:          t0.Add(time.Hour),
		MissionStart:           missionStart,
		MissionEnd:             missionStart.Add(1000 * time.Second),
		MissionRounds:          3,
		RoundPauseDuration:     60 * time.Second,
		LastRoundPauseDuration: 120 * time.Second,
		EnrollmentAmount:       uint256.NewInt(100),
		EnrollmentMinPlayers:   3,
		EnrollmentMaxPlayers:   5,
	}, t0)
	if err != nil {
		t.Fatalf("CreateMission() error = %v", err)
	}
	eng, err := f.reg.Mission(id)
	if err != nil {
		t.Fatalf("Mission() error = %v", err)
	}

	for i := 1; i <= players; i++ {
		_ = f.bank.Credit(ctx, id, uint256.NewInt(100))
		if err := eng.Enroll(ctx, player(byte(i)), uint256.NewInt(100), "", t0.Add(time.Minute)); err != nil {
			t.Fatalf("Enroll(%d) error = %v", i, err)
		}
	}
	return eng
}

func assertResults(t *testing.T, results []Result, wantRule string, wantErr bool) {
	t.Helper()
	if wantRule == "" {
		if len(results) != 0 {
			t.Fatalf("RunOnce() returned %d results, expected none: %+v", len(results), results)
		}
		return
	}
	if len(results) != 1 {
		t.Fatalf("RunOnce() returned %d results, expected 1: %+v", len(results), results)
	}
	if results[0].RuleID != wantRule {
		t.Errorf("RuleID = %s, expected %s", results[0].RuleID, wantRule)
	}
	if (results[0].Err != nil) != wantErr {
		t.Errorf("Err = %v, wantErr %v", results[0].Err, wantErr)
	}
}

func TestKeeper_ChecksStartAndRefunds(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	eng := f.createMission(t, 1)
	k := New(f.reg, time.Minute)

	assertResults(t, k.RunOnce(ctx, t0.Add(30*time.Minute)), "", false)

	assertResults(t, k.RunOnce(ctx, afterEnrl), "start_check_due", false)
	if got := eng.Status(afterEnrl); got != mission.StatusFailed {
		t.Errorf("Status() = %s, expected Failed", got)
	}
	if got := f.bank.BalanceOf(player(1)); got != 100 {
		t.Errorf("player balance = %d, expected 100", got)
	}

	assertResults(t, k.RunOnce(ctx, afterEnrl), "", false)
}

func TestKeeper_RetriesFailedRefunds(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.createMission(t, 1)
	k := New(f.reg, time.Minute)

	f.bank.SetRejecting(player(1), true)
	assertResults(t, k.RunOnce(ctx, afterEnrl), "start_check_due", false)
	assertResults(t, k.RunOnce(ctx, afterEnrl), "refund_pending", true)

	f.bank.SetRejecting(player(1), false)
	assertResults(t, k.RunOnce(ctx, afterEnrl.Add(time.Minute)), "refund_pending", false)
	if got := f.bank.BalanceOf(player(1)); got != 100 {
		t.Errorf("player balance = %d, expected 100", got)
	}

	assertResults(t, k.RunOnce(ctx, afterEnrl.Add(2*time.Minute)), "", false)
}

func TestKeeper_RetriesSettlement(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	eng := f.createMission(t, 1)
	k := New(f.reg, time.Minute)

	_ = f.bank.Credit(ctx, eng.ID(), uint256.NewInt(400))
	if err := eng.TopUp(ctx, uint256.NewInt(400), t0.Add(time.Minute)); err != nil {
		t.Fatalf("TopUp() error = %v", err)
	}

	f.bank.SetRejecting(owner, true)
	assertResults(t, k.RunOnce(ctx, afterEnrl), "start_check_due", true)
	assertResults(t, k.RunOnce(ctx, afterEnrl), "settle_pending", true)

	f.bank.SetRejecting(owner, false)
	assertResults(t, k.RunOnce(ctx, afterEnrl), "settle_pending", false)

	if got := f.bank.BalanceOf(owner); got != 100 {
		t.Errorf("owner balance = %d, expected 100", got)
	}
	if got := f.reg.ReservePool(mission.TypeDaily).Uint64(); got != 300 {
		t.Errorf("reserve pool = %d, expected 300", got)
	}

	assertResults(t, k.RunOnce(ctx, afterEnrl), "", false)
}

func TestKeeper_RefundsMissionNobodyPlayed(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	eng := f.createMission(t, 3)
	k := New(f.reg, time.Minute)

	// the start check was missed and no round was called
	afterEnd := t0.Add(2*time.Hour + 1001*time.Second)
	assertResults(t, k.RunOnce(ctx, afterEnd), "refund_pending", false)

	_, refunded := eng.RefundedPlayers(0, 0)
	if refunded != 3 {
		t.Errorf("refunded players = %d, expected 3", refunded)
	}
}

func TestKeeper_StartStop(t *testing.T) {
	f := setupFixture(t)
	f.createMission(t, 1)
	k := New(f.reg, 10*time.Millisecond, WithClock(func() time.Time { return afterEnrl }))

	k.Start(context.Background())
	k.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for f.bank.BalanceOf(player(1)) != 100 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	k.Stop()
	k.Stop()

	if got := f.bank.BalanceOf(player(1)); got != 100 {
		t.Errorf("player balance = %d, expected refund by the running keeper", got)
	}
}

func TestNew_SortsTasksByPriority(t *testing.T) {
	k := New(nil, 0, WithTasks(
		Task{Rule: SettleRule{}, Action: SettleAction{}},
		Task{Rule: StartCheckRule{}, Action: CheckStartAction{}},
		Task{Rule: RefundRule{}, Action: RefundAction{}},
	))

	want := []string{"start_check_due", "refund_pending", "settle_pending"}
	for i, task := range k.tasks {
		if task.Rule.ID() != want[i] {
			t.Errorf("tasks[%d] = %s, expected %s", i, task.Rule.ID(), want[i])
		}
	}
	if k.interval != DefaultInterval {
		t.Errorf("interval = %s, expected %s", k.interval, DefaultInterval)
	}
}
