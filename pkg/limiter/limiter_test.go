// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package limiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	base  = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

const day = 24 * time.Hour

func seed(t *testing.T, l *Limiter, user common.Address, at ...time.Time) {
	t.Helper()
	for _, ts := range at {
		if err := l.Record(context.Background(), user, ts); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
}

func TestCheck_Breaches(t *testing.T) {
	tests := []struct {
		name        string
		weekly      int
		monthly     int
		ages        []time.Duration
		wantAllowed bool
		wantBreach  Breach
		wantRetry   time.Duration
	}{
		{
			name:        "empty history",
			weekly:      4,
			monthly:     12,
			wantAllowed: true,
			wantBreach:  BreachNone,
		},
		{
			name:        "below both limits",
			weekly:      4,
			monthly:     12,
			ages:        []time.Duration{3 * day, 2 * day, 1 * day},
			wantAllowed: true,
			wantBreach:  BreachNone,
		},
		{
			name:       "exactly weekly limit in week",
			weekly:     4,
			monthly:    12,
			ages:       []time.Duration{6 * day, 4 * day, 2 * day, 1 * day},
			wantBreach: BreachWeekly,
			wantRetry:  1 * day,
		},
		{
			name:        "old entries only count monthly",
			weekly:      2,
			monthly:     12,
			ages:        []time.Duration{20 * day, 15 * day, 10 * day, 1 * day},
			wantAllowed: true,
			wantBreach:  BreachNone,
		},
		{
			name:       "monthly only",
			weekly:     3,
			monthly:    3,
			ages:       []time.Duration{20 * day, 10 * day, 8 * day},
			wantBreach: BreachMonthly,
			wantRetry:  10 * day,
		},
		{
			name:       "both broken, monthly reopens sooner",
			weekly:     2,
			monthly:    3,
			ages:       []time.Duration{29 * day, 2 * day, 1 * day},
			wantBreach: BreachMonthly,
			wantRetry:  1 * day,
		},
		{
			name:       "both broken, weekly reopens sooner",
			weekly:     2,
			monthly:    2,
			ages:       []time.Duration{6 * day, 1 * day},
			wantBreach: BreachWeekly,
			wantRetry:  1 * day,
		},
		{
			name:        "entries older than the month are ignored",
			weekly:      1,
			monthly:     1,
			ages:        []time.Duration{31 * day},
			wantAllowed: true,
			wantBreach:  BreachNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(NewMemoryHistoryStore(), tt.weekly, tt.monthly)
			now := base.Add(40 * day)
			for _, age := range tt.ages {
				seed(t, l, alice, now.Add(-age))
			}

			got, err := l.Check(context.Background(), alice, now)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Check().Allowed = %v, expected %v", got.Allowed, tt.wantAllowed)
			}
			if got.Breach != tt.wantBreach {
				t.Errorf("Check().Breach = %v, expected %v", got.Breach, tt.wantBreach)
			}
			if got.RetryIn != tt.wantRetry {
				t.Errorf("Check().RetryIn = %v, expected %v", got.RetryIn, tt.wantRetry)
			}
		})
	}
}

func TestRecord_PrunesOldEntries(t *testing.T) {
	l := New(nil, 0, 0)
	ctx := context.Background()

	seed(t, l, alice, base, base.Add(10*day), base.Add(31*day))

	history, err := l.History(ctx, alice)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() len = %d, expected 2", len(history))
	}
	if !history[0].Equal(base.Add(10 * day)) {
		t.Errorf("History()[0] = %v, expected %v", history[0], base.Add(10*day))
	}
	if !history[1].Equal(base.Add(31 * day)) {
		t.Errorf("History()[1] = %v, expected %v", history[1], base.Add(31*day))
	}
}

func TestUndo_RemovesAtMostOne(t *testing.T) {
	l := New(nil, 0, 0)
	ctx := context.Background()

	seed(t, l, alice, base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(5*day))

	removed, err := l.Undo(ctx, alice, base.Add(30*time.Minute), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !removed {
		t.Fatal("Undo() removed = false, expected true")
	}

	history, _ := l.History(ctx, alice)
	want := []time.Time{base, base.Add(2 * time.Hour), base.Add(5 * day)}
	if len(history) != len(want) {
		t.Fatalf("History() len = %d, expected %d", len(history), len(want))
	}
	for i := range want {
		if !history[i].Equal(want[i]) {
			t.Errorf("History()[%d] = %v, expected %v", i, history[i], want[i])
		}
	}

	removed, err = l.Undo(ctx, alice, base.Add(10*day), base.Add(11*day))
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if removed {
		t.Error("Undo() outside every entry removed = true, expected false")
	}
}

func TestUndo_OpensSlot(t *testing.T) {
	l := New(nil, 1, 10)
	ctx := context.Background()
	seed(t, l, alice, base)

	res, _ := l.Check(ctx, alice, base.Add(time.Hour))
	if res.Allowed {
		t.Fatal("Check() allowed before undo, expected weekly breach")
	}

	if _, err := l.Undo(ctx, alice, base, base); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	res, _ = l.Check(ctx, alice, base.Add(time.Hour))
	if !res.Allowed {
		t.Errorf("Check() after undo = %+v, expected allowed", res)
	}
}

func TestUntilSlot(t *testing.T) {
	l := New(nil, 2, 3)
	ctx := context.Background()
	now := base.Add(20 * day)

	seed(t, l, alice, now.Add(-25*day), now.Add(-3*day), now.Add(-1*day))

	weekly, err := l.UntilWeeklySlot(ctx, alice, now)
	if err != nil {
		t.Fatalf("UntilWeeklySlot() error = %v", err)
	}
	if weekly != 4*day {
		t.Errorf("UntilWeeklySlot() = %v, expected %v", weekly, 4*day)
	}

	monthly, err := l.UntilMonthlySlot(ctx, alice, now)
	if err != nil {
		t.Fatalf("UntilMonthlySlot() error = %v", err)
	}
	if monthly != 5*day {
		t.Errorf("UntilMonthlySlot() = %v, expected %v", monthly, 5*day)
	}

	free, _ := l.UntilWeeklySlot(ctx, bob, now)
	if free != 0 {
		t.Errorf("UntilWeeklySlot() for empty history = %v, expected 0", free)
	}
}

func TestSetLimits(t *testing.T) {
	tests := []struct {
		name    string
		weekly  int
		monthly int
		wantErr bool
	}{
		{"valid", 3, 9, false},
		{"equal", 5, 5, false},
		{"zero weekly", 0, 9, true},
		{"zero monthly", 1, 0, true},
		{"weekly above monthly", 10, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(nil, 0, 0)
			err := l.SetLimits(tt.weekly, tt.monthly)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetLimits() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLimits) {
					t.Errorf("SetLimits() error = %v, expected ErrInvalidLimits", err)
				}
				w, m := l.Limits()
				if w != DefaultWeeklyLimit || m != DefaultMonthlyLimit {
					t.Errorf("Limits() = %d/%d after rejected update, expected defaults", w, m)
				}
				return
			}
			w, m := l.Limits()
			if w != tt.weekly || m != tt.monthly {
				t.Errorf("Limits() = %d/%d, expected %d/%d", w, m, tt.weekly, tt.monthly)
			}
		})
	}
}

func TestHistoriesAreIndependent(t *testing.T) {
	l := New(nil, 1, 1)
	ctx := context.Background()
	seed(t, l, alice, base)

	res, err := l.Check(ctx, bob, base)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !res.Allowed {
		t.Errorf("Check() for another user = %+v, expected allowed", res)
	}
}

func TestReserve_TakesSlotOnlyWhenAllowed(t *testing.T) {
	l := New(nil, 2, 12)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Reserve(ctx, alice, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("Reserve() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Reserve() #%d = %+v, expected allowed", i, res)
		}
	}

	res, err := l.Reserve(ctx, alice, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if res.Allowed || res.Breach != BreachWeekly {
		t.Errorf("Reserve() over the cap = %+v, expected weekly breach", res)
	}

	history, _ := l.History(ctx, alice)
	if len(history) != 2 {
		t.Errorf("History() length = %d, expected 2 after a rejected reservation", len(history))
	}
}

func TestReserve_ConcurrentCallsShareOneSlot(t *testing.T) {
	l := New(nil, 1, 12)
	ctx := context.Background()

	const callers = 16
	var (
		wg      sync.WaitGroup
		allowed int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Reserve(ctx, alice, base)
			if err != nil {
				t.Errorf("Reserve() error = %v", err)
				return
			}
			if res.Allowed {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("allowed reservations = %d, expected 1", allowed)
	}
}
