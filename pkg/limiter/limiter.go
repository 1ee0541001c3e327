// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package limiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	// WeeklyWindow is the length of the short sliding window.
	WeeklyWindow = 7 * 24 * time.Hour
	// MonthlyWindow is the length of the long sliding window. History older
	// than this is pruned.
	MonthlyWindow = 30 * 24 * time.Hour

	DefaultWeeklyLimit  = 4
	DefaultMonthlyLimit = 12
)

var ErrInvalidLimits = errors.New("limiter: weekly and monthly limits must be >= 1 and weekly <= monthly")

// Breach identifies which cap blocks an enrollment.
type Breach uint8

const (
	BreachNone Breach = iota
	BreachWeekly
	BreachMonthly
)

func (b Breach) String() string {
	switch b {
	case BreachWeekly:
		return "Weekly"
	case BreachMonthly:
		return "Monthly"
	default:
		return "None"
	}
}

func (b Breach) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Result is the outcome of an enrollment allowance check.
type Result struct {
	Allowed bool          `json:"allowed"`
	Breach  Breach        `json:"breach"`
	RetryIn time.Duration `json:"retryIn"`
}

// Limiter caps how many missions a user may join per week and per month.
// Reserve checks and records in one step, so two enrollments of the same
// user racing on different missions cannot both take the last slot.
type Limiter struct {
	mu      sync.Mutex
	store   HistoryStore
	weekly  int
	monthly int
}

// New creates a limiter over store. Non-positive limits fall back to the
// defaults.
func New(store HistoryStore, weekly, monthly int) *Limiter {
	if store == nil {
		store = NewMemoryHistoryStore()
	}
	if weekly <= 0 {
		weekly = DefaultWeeklyLimit
	}
	if monthly <= 0 {
		monthly = DefaultMonthlyLimit
	}
	return &Limiter{store: store, weekly: weekly, monthly: monthly}
}

// Limits returns the current weekly and monthly caps.
func (l *Limiter) Limits() (weekly, monthly int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.weekly, l.monthly
}

// SetLimits replaces both caps.
func (l *Limiter) SetLimits(weekly, monthly int) error {
	if weekly < 1 || monthly < 1 || weekly > monthly {
		return fmt.Errorf("%w: weekly=%d monthly=%d", ErrInvalidLimits, weekly, monthly)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.weekly, l.monthly = weekly, monthly

	logrus.Infof("enrollment limits set to weekly=%d monthly=%d", weekly, monthly)
	return nil
}

// Check reports whether user may enroll at now without recording anything.
func (l *Limiter) Check(ctx context.Context, user common.Address, now time.Time) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.store.Load(ctx, user)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load enrollment history for %s: %w", user.Hex(), err)
	}

	return evaluate(history, now.Unix(), l.weekly, l.monthly), nil
}

// Reserve checks whether user may enroll at now and, if so, records the
// enrollment in the same atomic update. A rejected reservation changes
// nothing.
func (l *Limiter) Reserve(ctx context.Context, user common.Address, now time.Time) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res Result
	err := l.store.Update(ctx, user, func(history []int64) ([]int64, bool) {
		res = evaluate(history, now.Unix(), l.weekly, l.monthly)
		if !res.Allowed {
			return nil, false
		}
		return append(prune(history, now.Unix()), now.Unix()), true
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to reserve enrollment for %s: %w", user.Hex(), err)
	}

	if res.Allowed {
		logrus.Debugf("reserved enrollment slot for %s", user.Hex())
	}
	return res, nil
}

// Record prunes history older than the monthly window and appends now
// without checking the caps.
func (l *Limiter) Record(ctx context.Context, user common.Address, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.Update(ctx, user, func(history []int64) ([]int64, bool) {
		return append(prune(history, now.Unix()), now.Unix()), true
	})
	if err != nil {
		return fmt.Errorf("failed to record enrollment for %s: %w", user.Hex(), err)
	}

	logrus.Debugf("recorded enrollment for %s", user.Hex())
	return nil
}

// Undo removes at most one timestamp inside [from, to], preserving order.
// It reports whether an entry was removed.
func (l *Limiter) Undo(ctx context.Context, user common.Address, from, to time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lo, hi := from.Unix(), to.Unix()
	removed := false
	err := l.store.Update(ctx, user, func(history []int64) ([]int64, bool) {
		removed = false
		for i, ts := range history {
			if ts < lo || ts > hi {
				continue
			}
			removed = true
			return append(history[:i], history[i+1:]...), true
		}
		return nil, false
	})
	if err != nil {
		return false, fmt.Errorf("failed to reverse enrollment for %s: %w", user.Hex(), err)
	}

	if removed {
		logrus.Debugf("reversed enrollment for %s in [%d, %d]", user.Hex(), lo, hi)
	}
	return removed, nil
}

// UntilWeeklySlot returns the time until user has a free weekly slot, or
// zero if one is free now.
func (l *Limiter) UntilWeeklySlot(ctx context.Context, user common.Address, now time.Time) (time.Duration, error) {
	return l.untilSlot(ctx, user, now, WeeklyWindow, func() int { return l.weekly })
}

// UntilMonthlySlot is UntilWeeklySlot for the monthly cap.
func (l *Limiter) UntilMonthlySlot(ctx context.Context, user common.Address, now time.Time) (time.Duration, error) {
	return l.untilSlot(ctx, user, now, MonthlyWindow, func() int { return l.monthly })
}

func (l *Limiter) untilSlot(ctx context.Context, user common.Address, now time.Time, window time.Duration, limit func() int) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.store.Load(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("failed to load enrollment history for %s: %w", user.Hex(), err)
	}

	w := window.Seconds()
	count, earliest := inWindow(history, now.Unix(), int64(w))
	if count < limit() {
		return 0, nil
	}
	return retryIn(earliest, now.Unix(), int64(w)), nil
}

// History returns the stored enrollment timestamps of user.
func (l *Limiter) History(ctx context.Context, user common.Address) ([]time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.store.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(history))
	for i, ts := range history {
		out[i] = time.Unix(ts, 0).UTC()
	}
	return out, nil
}

func evaluate(history []int64, now int64, weekly, monthly int) Result {
	week := int64(WeeklyWindow.Seconds())
	month := int64(MonthlyWindow.Seconds())

	weekCount, weekEarliest := inWindow(history, now, week)
	monthCount, monthEarliest := inWindow(history, now, month)

	weekBroken := weekCount >= weekly
	monthBroken := monthCount >= monthly

	switch {
	case weekBroken && monthBroken:
		weekRetry := retryIn(weekEarliest, now, week)
		monthRetry := retryIn(monthEarliest, now, month)
		if monthRetry < weekRetry {
			return Result{Breach: BreachMonthly, RetryIn: monthRetry}
		}
		return Result{Breach: BreachWeekly, RetryIn: weekRetry}
	case weekBroken:
		return Result{Breach: BreachWeekly, RetryIn: retryIn(weekEarliest, now, week)}
	case monthBroken:
		return Result{Breach: BreachMonthly, RetryIn: retryIn(monthEarliest, now, month)}
	default:
		return Result{Allowed: true, Breach: BreachNone}
	}
}

// inWindow counts entries younger than window and returns the earliest of
// them. History is append-ordered, so the first match is the earliest.
func inWindow(history []int64, now, window int64) (int, int64) {
	count := 0
	var earliest int64
	for _, ts := range history {
		if now-ts >= window {
			continue
		}
		if count == 0 {
			earliest = ts
		}
		count++
	}
	return count, earliest
}

func retryIn(earliest, now, window int64) time.Duration {
	remaining := earliest + window - now
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Second
}

// prune drops the prefix of entries older than the monthly window.
func prune(history []int64, now int64) []int64 {
	month := int64(MonthlyWindow.Seconds())
	cut := 0
	for cut < len(history) && now-history[cut] >= month {
		cut++
	}
	if cut == 0 {
		return history
	}
	n := copy(history, history[cut:])
	return history[:n]
}
