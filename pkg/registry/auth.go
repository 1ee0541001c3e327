// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// ProposalValidity is how long an ownership proposal can be confirmed.
const ProposalValidity = 24 * time.Hour

type ownerProposal struct {
	candidate common.Address
	proposer  common.Address
	expires   time.Time
}

// Owner returns the current owner.
func (r *Registry) Owner() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// IsAuthorized reports whether addr is the owner or in the authorized set.
func (r *Registry) IsAuthorized(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isAuthorizedLocked(addr)
}

// RequireAuthorized fails unless caller is the owner or authorized.
func (r *Registry) RequireAuthorized(caller common.Address) error {
	if !r.IsAuthorized(caller) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller.Hex())
	}
	return nil
}

func (r *Registry) isAuthorizedLocked(addr common.Address) bool {
	return addr == r.owner || r.authorized[addr]
}

// Authorize adds addr to the authorized set. Owner only.
func (r *Registry) Authorize(caller, addr common.Address) error {
	if addr == (common.Address{}) {
		return ErrZeroAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrNotOwner
	}
	r.authorized[addr] = true

	logrus.Infof("authorized %s", addr.Hex())
	return nil
}

// Deauthorize removes addr from the authorized set. Owner only.
func (r *Registry) Deauthorize(caller, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrNotOwner
	}
	delete(r.authorized, addr)

	logrus.Infof("deauthorized %s", addr.Hex())
	return nil
}

// ProposeOwner starts a two-step ownership transfer to candidate.
func (r *Registry) ProposeOwner(caller, candidate common.Address, now time.Time) error {
	if candidate == (common.Address{}) {
		return ErrZeroAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isAuthorizedLocked(caller) {
		return ErrNotAuthorized
	}
	r.pending = &ownerProposal{
		candidate: candidate,
		proposer:  caller,
		expires:   now.Add(ProposalValidity),
	}

	logrus.Infof("%s proposed %s as owner", caller.Hex(), candidate.Hex())
	return nil
}

// ConfirmOwner completes a pending ownership transfer. The confirming
// caller must be authorized and must not be the proposer.
func (r *Registry) ConfirmOwner(caller common.Address, now time.Time) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isAuthorizedLocked(caller) {
		return common.Address{}, ErrNotAuthorized
	}
	if r.pending == nil {
		return common.Address{}, ErrNoProposal
	}
	if now.After(r.pending.expires) {
		r.pending = nil
		return common.Address{}, ErrProposalExpired
	}
	if caller == r.pending.proposer {
		return common.Address{}, ErrSameApprover
	}

	previous := r.owner
	r.owner = r.pending.candidate
	r.pending = nil

	logrus.Infof("ownership moved from %s to %s, confirmed by %s", previous.Hex(), r.owner.Hex(), caller.Hex())
	return r.owner, nil
}

// SetRateLimits updates the enrollment caps.
func (r *Registry) SetRateLimits(caller common.Address, weekly, monthly int) error {
	if err := r.RequireAuthorized(caller); err != nil {
		return err
	}
	return r.limiter.SetLimits(weekly, monthly)
}

// SetPurgeBatchSize updates how many ledger entries a purge pass examines.
func (r *Registry) SetPurgeBatchSize(caller common.Address, n int) error {
	if err := r.RequireAuthorized(caller); err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("%w: purge batch size must be positive", ErrInvalidParams)
	}
	r.ledger.SetBatchSize(n)
	return nil
}

// WithdrawPlatformBalance sends amount from the factory account to to.
// Funds earmarked for reserve pools cannot be withdrawn. Owner only.
func (r *Registry) WithdrawPlatformBalance(ctx context.Context, caller, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidParams)
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return ErrNotOwner
	}

	balance, err := r.bank.Balance(ctx, r.factory)
	if err != nil {
		return fmt.Errorf("failed to read factory balance: %w", err)
	}
	reserved := new(uint256.Int)
	for _, pool := range r.reserves {
		reserved.Add(reserved, pool)
	}
	available := new(uint256.Int)
	if balance.Gt(reserved) {
		available.Sub(balance, reserved)
	}
	if amount.Gt(available) {
		return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientFunds, amount.Dec(), available.Dec())
	}

	if err := r.bank.Transfer(ctx, r.factory, to, amount); err != nil {
		return fmt.Errorf("failed to withdraw platform balance: %w", err)
	}

	logrus.Infof("withdrew %s platform balance to %s", amount.Dec(), to.Hex())
	return nil
}
