// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/settlement"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Engine is the state machine of a single mission.
//
// Every mutating operation holds mu for its whole run except while a value
// transfer is pending. During that window inFlight is set and any other
// mutating call fails with ErrOperationInProgress, so pool counters change
// exactly once per round or refund. Read views are served during a transfer
// and observe the state from before it.
type Engine struct {
	mu       sync.Mutex
	inFlight bool

	data  Data
	index map[common.Address]int

	callback Callback
	bank     Bank
	detector ContractDetector
	policies *settlement.Registry
}

// Option customizes an Engine.
type Option func(*Engine)

// WithContractDetector rejects enrollments from contract accounts.
func WithContractDetector(d ContractDetector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithPolicies overrides the settlement policies.
func WithPolicies(p *settlement.Registry) Option {
	return func(e *Engine) { e.policies = p }
}

// New creates an engine over data. The mission's funds live in the bank
// account named by data.ID.
func New(data Data, callback Callback, bank Bank, opts ...Option) *Engine {
	e := &Engine{
		data:     data.Clone(),
		index:    make(map[common.Address]int, len(data.Players)),
		callback: callback,
		bank:     bank,
	}
	for i, p := range e.data.Players {
		e.index[p.Address] = i
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policies == nil {
		e.policies = DefaultPolicies()
	}
	return e
}

// lock acquires mu and rejects the call if a transfer is pending. On nil
// the caller owns mu.
func (e *Engine) lock() error {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrOperationInProgress
	}
	return nil
}

// transferLocked sends amount from the mission account to to. mu is released
// for the duration of the transfer and held again on return.
func (e *Engine) transferLocked(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	from := e.data.ID
	value := amount.Clone()

	e.inFlight = true
	e.mu.Unlock()
	err := e.bank.Transfer(ctx, from, to, value)
	e.mu.Lock()
	e.inFlight = false

	if err != nil {
		return &TransferError{To: to, Amount: value, Err: err}
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, st Status, now time.Time) {
	e.callback.PublishStatus(ctx, st, now, e.data.Clone())
}

// Enroll adds player to the mission. paid must equal the enrollment amount
// and must already sit in the mission account. passphrase is only checked
// for invite-only missions.
func (e *Engine) Enroll(ctx context.Context, player common.Address, paid *uint256.Int, passphrase string, now time.Time) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	d := &e.data

	// a wrong passphrase looks exactly like a closed mission
	if d.Type == TypeInviteOnly && Commitment(passphrase, d.EnrollmentStart) != d.Commitment {
		return ErrEnrollmentNotOpen
	}

	if e.detector != nil {
		isContract, err := e.detector.IsContract(ctx, player)
		if err != nil {
			return fmt.Errorf("failed to inspect caller %s: %w", player.Hex(), err)
		}
		if isContract {
			return ErrContractCaller
		}
	}

	if now.Before(d.EnrollmentStart) {
		return ErrEnrollmentNotOpen
	}
	if now.After(d.EnrollmentEnd) {
		return ErrEnrollmentClosed
	}
	if len(d.Players) >= d.EnrollmentMaxPlayers {
		return ErrMissionFull
	}
	if paid == nil || !paid.Eq(d.EnrollmentAmount) {
		return &FeeError{Expected: d.EnrollmentAmount.Clone(), Sent: amountOrZero(paid)}
	}
	if _, joined := e.index[player]; joined {
		return ErrAlreadyJoined
	}

	res, err := e.callback.ReserveEnrollment(ctx, player, now)
	if err != nil {
		return fmt.Errorf("failed to reserve enrollment: %w", err)
	}
	if !res.Allowed {
		return &RateLimitError{Breach: res.Breach, RetryIn: res.RetryIn}
	}

	e.index[player] = len(d.Players)
	d.Players = append(d.Players, PlayerRecord{
		Address:    player,
		EnrolledAt: now,
		Won:        new(uint256.Int),
	})
	d.CroStart.Add(d.CroStart, paid)
	d.CroCurrent.Add(d.CroCurrent, paid)
	d.Balance.Add(d.Balance, paid)

	logrus.Infof("mission %s: %s enrolled (%d/%d)", d.ID.Hex(), player.Hex(), len(d.Players), d.EnrollmentMaxPlayers)
	e.publish(ctx, StatusEnrolling, now)
	return nil
}

// CheckStartCondition runs once between the end of enrollment and the
// mission start. An under-subscribed mission fails and refunds everyone;
// otherwise it arms. Later calls return the current status.
func (e *Engine) CheckStartCondition(ctx context.Context, now time.Time) (Status, error) {
	if err := e.lock(); err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	d := &e.data
	if d.StartChecked {
		return DeriveStatus(now, d), nil
	}
	if !now.After(d.EnrollmentEnd) {
		return DeriveStatus(now, d), ErrEnrollmentStillOpen
	}
	if !now.Before(d.MissionStart) {
		return DeriveStatus(now, d), ErrMissionStarted
	}

	d.StartChecked = true

	if len(d.Players) < d.EnrollmentMinPlayers {
		logrus.Infof("mission %s: %d of %d required players, failing", d.ID.Hex(), len(d.Players), d.EnrollmentMinPlayers)
		d.FinalStatus = StatusFailed
		e.publish(ctx, StatusFailed, now)
		if _, err := e.refundAllLocked(ctx, now); err != nil {
			return StatusFailed, err
		}
		return StatusFailed, nil
	}

	e.publish(ctx, StatusArming, now)
	return StatusArming, nil
}

// CallRound pays player the round payout. A failed transfer aborts the call
// with no state change. The final round finalizes and settles the mission.
func (e *Engine) CallRound(ctx context.Context, player common.Address, now time.Time) (RoundResult, error) {
	if err := e.lock(); err != nil {
		return RoundResult{}, err
	}
	defer e.mu.Unlock()

	d := &e.data
	switch st := DeriveStatus(now, d); st {
	case StatusActive:
	case StatusPaused:
		return RoundResult{}, &CooldownError{Remaining: d.cooldownRemaining(now)}
	default:
		return RoundResult{}, fmt.Errorf("%w: status %s", ErrMissionNotActive, st)
	}

	idx, ok := e.index[player]
	if !ok {
		return RoundResult{}, ErrNotPlayer
	}
	if d.Players[idx].HasWon() {
		return RoundResult{}, ErrAlreadyWon
	}
	if d.RoundCount >= d.MissionRounds {
		return RoundResult{}, ErrAllRoundsClaimed
	}

	payout, err := Payout(now, d)
	if err != nil {
		logrus.Errorf("mission %s: %v", d.ID.Hex(), err)
		return RoundResult{}, err
	}

	if err := e.transferLocked(ctx, player, payout); err != nil {
		logrus.Warnf("mission %s: round payout to %s failed: %v", d.ID.Hex(), player.Hex(), err)
		return RoundResult{}, err
	}

	d.CroCurrent.Sub(d.CroCurrent, payout)
	d.Balance = saturatingSub(d.Balance, payout)
	d.RoundCount++
	d.PauseTimestamp = now
	d.Players[idx].Won = payout.Clone()
	d.Players[idx].WonAt = now

	logrus.Infof("mission %s: round %d/%d paid %s to %s", d.ID.Hex(), d.RoundCount, d.MissionRounds, payout.Dec(), player.Hex())

	if d.RoundCount >= d.MissionRounds {
		d.FinalStatus = StatusSuccess
		e.publish(ctx, StatusSuccess, now)
		if _, err := e.settleLocked(ctx, false); err != nil {
			logrus.Errorf("mission %s: settlement after final round failed: %v", d.ID.Hex(), err)
		}
		return RoundResult{Payout: payout, Round: d.RoundCount, Status: StatusSuccess}, nil
	}

	e.publish(ctx, StatusPaused, now)
	return RoundResult{Payout: payout, Round: d.RoundCount, Status: StatusPaused}, nil
}

// RefundAll returns the enrollment amount to every player not yet refunded.
// Individual transfer failures are recorded and do not stop the batch.
func (e *Engine) RefundAll(ctx context.Context, now time.Time) (RefundReport, error) {
	if err := e.lock(); err != nil {
		return RefundReport{}, err
	}
	defer e.mu.Unlock()

	if st := DeriveStatus(now, &e.data); st != StatusFailed {
		return RefundReport{}, fmt.Errorf("%w: status %s", ErrNotFailed, st)
	}
	return e.refundAllLocked(ctx, now)
}

func (e *Engine) refundAllLocked(ctx context.Context, now time.Time) (RefundReport, error) {
	d := &e.data
	if d.FinalStatus != StatusFailed {
		d.FinalStatus = StatusFailed
		e.publish(ctx, StatusFailed, now)
	}

	report := RefundReport{Settlement: settlement.Zero()}
	for i := range d.Players {
		if d.Players[i].Refunded {
			continue
		}
		addr := d.Players[i].Address

		if err := e.transferLocked(ctx, addr, d.EnrollmentAmount); err != nil {
			d.Players[i].RefundFailed = true
			report.Failed = append(report.Failed, addr)
			logrus.Warnf("mission %s: refund to %s failed: %v", d.ID.Hex(), addr.Hex(), err)
			continue
		}

		d.Players[i].Refunded = true
		d.Players[i].RefundFailed = false
		d.Players[i].RefundedAt = now
		d.Balance = saturatingSub(d.Balance, d.EnrollmentAmount)
		d.CroCurrent = saturatingSub(d.CroCurrent, d.EnrollmentAmount)
		report.Refunded = append(report.Refunded, addr)

		if err := e.callback.UndoEnrollment(ctx, addr, d.EnrollmentStart, d.EnrollmentEnd); err != nil {
			logrus.Warnf("mission %s: failed to reverse enrollment of %s: %v", d.ID.Hex(), addr.Hex(), err)
		}
	}

	failed := d.failedRefundCount()
	logrus.Infof("mission %s: refunded %d players, %d failed", d.ID.Hex(), len(report.Refunded), failed)

	split, err := e.settleLocked(ctx, failed == 0)
	report.Settlement = split
	e.publish(ctx, StatusFailed, now)
	return report, err
}

// Settle distributes the mission balance according to the split policy of
// its type. Unless force is set, the enrollment amounts owed to players
// whose refund failed stay in the mission account.
func (e *Engine) Settle(ctx context.Context, force bool, now time.Time) (settlement.Split, error) {
	if err := e.lock(); err != nil {
		return settlement.Split{}, err
	}
	defer e.mu.Unlock()

	d := &e.data
	st := DeriveStatus(now, d)
	if !st.IsTerminal() {
		return settlement.Split{}, fmt.Errorf("%w: status %s", ErrNotTerminal, st)
	}
	if d.FinalStatus != st {
		d.FinalStatus = st
		e.publish(ctx, st, now)
	}
	return e.settleLocked(ctx, force)
}

// settleLocked splits whatever part of the balance is not yet owed to
// anyone and pays every outstanding share. A share whose transfer fails stays
// in PendingShares and is paid as-is by the next call, so a retry never
// re-splits money already allotted to a recipient.
func (e *Engine) settleLocked(ctx context.Context, force bool) (settlement.Split, error) {
	d := &e.data
	pending := d.PendingShares.Clone()

	distributable := saturatingSub(d.Balance, pending.Total())
	if !force {
		reserved := new(uint256.Int).Mul(d.EnrollmentAmount, uint256.NewInt(uint64(d.failedRefundCount())))
		distributable = saturatingSub(distributable, reserved)
	}
	if !distributable.IsZero() {
		pending = pending.Add(e.policies.Get(d.Type.String()).Split(distributable))
	}
	d.PendingShares = pending

	realized := settlement.Zero()
	var firstErr error
	pay := func(to common.Address, owed **uint256.Int, paid **uint256.Int) bool {
		amount := (*owed).Clone()
		if amount.IsZero() {
			return false
		}
		if err := e.transferLocked(ctx, to, amount); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return false
		}
		d.Balance = saturatingSub(d.Balance, amount)
		*owed = new(uint256.Int)
		*paid = amount
		return true
	}

	pay(e.callback.Owner(), &d.PendingShares.Owner, &realized.Owner)
	pay(d.Creator, &d.PendingShares.Creator, &realized.Creator)
	if pay(e.callback.Treasury(), &d.PendingShares.Reserve, &realized.Reserve) {
		if err := e.callback.RegisterFunds(ctx, d.Type, realized.Reserve); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to register reserve funds: %w", err)
		}
	}
	d.Shares = d.Shares.Add(realized)

	if firstErr != nil {
		logrus.Warnf("mission %s: settlement incomplete, outstanding owner=%s creator=%s reserve=%s: %v",
			d.ID.Hex(), d.PendingShares.Owner.Dec(), d.PendingShares.Creator.Dec(), d.PendingShares.Reserve.Dec(), firstErr)
		return realized, firstErr
	}

	logrus.Infof("mission %s settled: owner=%s creator=%s reserve=%s",
		d.ID.Hex(), realized.Owner.Dec(), realized.Creator.Dec(), realized.Reserve.Dec())
	return realized, nil
}

// ForceFinalize closes a partly successful mission as a success and
// settles it.
func (e *Engine) ForceFinalize(ctx context.Context, now time.Time) (settlement.Split, error) {
	if err := e.lock(); err != nil {
		return settlement.Split{}, err
	}
	defer e.mu.Unlock()

	d := &e.data
	if st := DeriveStatus(now, d); st != StatusPartlySuccess {
		return settlement.Split{}, fmt.Errorf("%w: status %s", ErrNotPartlySuccess, st)
	}

	d.FinalStatus = StatusSuccess
	e.publish(ctx, StatusSuccess, now)
	return e.settleLocked(ctx, false)
}

// TopUp adds amount to the prize pool. The funds must already sit in the
// mission account.
func (e *Engine) TopUp(ctx context.Context, amount *uint256.Int, now time.Time) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	d := &e.data
	st := DeriveStatus(now, d)
	if st.IsTerminal() || !now.Before(d.MissionEnd) {
		return fmt.Errorf("%w: status %s", ErrMissionEnded, st)
	}

	d.CroInitial.Add(d.CroInitial, amount)
	d.CroStart.Add(d.CroStart, amount)
	d.CroCurrent.Add(d.CroCurrent, amount)
	d.Balance.Add(d.Balance, amount)

	logrus.Infof("mission %s: pool topped up by %s to %s", d.ID.Hex(), amount.Dec(), d.CroStart.Dec())
	e.publish(ctx, st, now)
	return nil
}

func saturatingSub(a, b *uint256.Int) *uint256.Int {
	a = amountOrZero(a)
	if b == nil || a.Lt(b) {
		return new(uint256.Int)
	}
	return a.Sub(a, b)
}
