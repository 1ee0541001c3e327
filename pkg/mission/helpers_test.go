// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	t0          = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	ownerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	treasury    = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	creatorAddr = common.HexToAddress("0x00000000000000000000000000000000000000f3")
	missionAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

// test timeline
var (
	enrollStart = t0
	enrollEnd   = t0.Add(time.Hour)
	missionBeg  = t0.Add(2 * time.Hour)
	missionFin  = missionBeg.Add(1000 * time.Second)
)

func player(n byte) common.Address {
	return common.BytesToAddress([]byte{0x10, n})
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// fakeBank is an in-memory ledger of balances with per-recipient rejection.
type fakeBank struct {
	mu         sync.Mutex
	balances   map[common.Address]*uint256.Int
	rejecting  map[common.Address]bool
	onTransfer func()
	transfers  int
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		balances:  make(map[common.Address]*uint256.Int),
		rejecting: make(map[common.Address]bool),
	}
}

func (b *fakeBank) credit(addr common.Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[addr]
	if bal == nil {
		bal = new(uint256.Int)
	}
	b.balances[addr] = new(uint256.Int).Add(bal, u(amount))
}

func (b *fakeBank) balance(addr common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal := b.balances[addr]; bal != nil {
		return bal.Uint64()
	}
	return 0
}

func (b *fakeBank) reject(addr common.Address, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejecting[addr] = on
}

func (b *fakeBank) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	if b.onTransfer != nil {
		b.onTransfer()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.transfers++

	if b.rejecting[to] {
		return errors.New("recipient rejected transfer")
	}
	bal := b.balances[from]
	if bal == nil || bal.Lt(amount) {
		return errors.New("insufficient balance")
	}
	b.balances[from] = new(uint256.Int).Sub(bal, amount)
	dst := b.balances[to]
	if dst == nil {
		dst = new(uint256.Int)
	}
	b.balances[to] = new(uint256.Int).Add(dst, amount)
	return nil
}

// fakeCallback stands in for the registry.
type fakeCallback struct {
	mu        sync.Mutex
	limiter   *limiter.Limiter
	published []Status
	reserves  map[Type]*uint256.Int
}

func newFakeCallback(weekly, monthly int) *fakeCallback {
	return &fakeCallback{
		limiter:  limiter.New(limiter.NewMemoryHistoryStore(), weekly, monthly),
		reserves: make(map[Type]*uint256.Int),
	}
}

func (c *fakeCallback) PublishStatus(_ context.Context, st Status, _ time.Time, _ Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, st)
}

func (c *fakeCallback) RegisterFunds(_ context.Context, t Type, amount *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.reserves[t]
	if cur == nil {
		cur = new(uint256.Int)
	}
	c.reserves[t] = new(uint256.Int).Add(cur, amount)
	return nil
}

func (c *fakeCallback) ReserveEnrollment(ctx context.Context, user common.Address, now time.Time) (limiter.Result, error) {
	return c.limiter.Reserve(ctx, user, now)
}

func (c *fakeCallback) UndoEnrollment(ctx context.Context, user common.Address, from, to time.Time) error {
	_, err := c.limiter.Undo(ctx, user, from, to)
	return err
}

func (c *fakeCallback) Owner() common.Address    { return ownerAddr }
func (c *fakeCallback) Treasury() common.Address { return treasury }

func (c *fakeCallback) statuses() []Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Status, len(c.published))
	copy(out, c.published)
	return out
}

func (c *fakeCallback) reserve(t Type) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.reserves[t]; r != nil {
		return r.Uint64()
	}
	return 0
}

type staticDetector map[common.Address]bool

func (s staticDetector) IsContract(_ context.Context, addr common.Address) (bool, error) {
	return s[addr], nil
}

func testParams(t Type) Params {
	return Params{
		Type:                   t,
		Name:                   "test mission",
		Creator:                creatorAddr,
		EnrollmentStart:        enrollStart,
		EnrollmentEnd:          enrollEnd,
		MissionStart:           missionBeg,
		MissionEnd:             missionFin,
		MissionRounds:          5,
		RoundPauseDuration:     60 * time.Second,
		LastRoundPauseDuration: 120 * time.Second,
		EnrollmentAmount:       u(100),
		EnrollmentMinPlayers:   3,
		EnrollmentMaxPlayers:   5,
	}
}

type fixture struct {
	engine   *Engine
	bank     *fakeBank
	callback *fakeCallback
}

func newFixture(t *testing.T, p Params, seed uint64, opts ...Option) *fixture {
	t.Helper()
	bank := newFakeBank()
	bank.credit(missionAddr, seed)
	cb := newFakeCallback(0, 0)
	e := New(NewData(missionAddr, p, u(seed), t0), cb, bank, opts...)
	return &fixture{engine: e, bank: bank, callback: cb}
}

// enroll deposits the fee into the mission account and enrolls.
func (f *fixture) enroll(t *testing.T, who common.Address, at time.Time) {
	t.Helper()
	amount := f.engine.Snapshot(at).EnrollmentAmount.Uint64()
	f.bank.credit(missionAddr, amount)
	if err := f.engine.Enroll(context.Background(), who, u(amount), "", at); err != nil {
		t.Fatalf("Enroll(%s) error = %v", who.Hex(), err)
	}
}

func (f *fixture) enrollN(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		f.enroll(t, player(byte(i)), enrollStart.Add(time.Duration(i)*time.Minute))
	}
}
