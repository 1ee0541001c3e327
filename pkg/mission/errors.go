// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// timing
	ErrEnrollmentNotOpen   = errors.New("mission: enrollment not open")
	ErrEnrollmentClosed    = errors.New("mission: enrollment closed")
	ErrEnrollmentStillOpen = errors.New("mission: enrollment still open")
	ErrMissionStarted      = errors.New("mission: mission already started")
	ErrMissionNotActive    = errors.New("mission: mission not active")
	ErrMissionEnded        = errors.New("mission: mission already ended")
	ErrCooldown            = errors.New("mission: round cooldown active")

	// capacity
	ErrMissionFull      = errors.New("mission: maximum players reached")
	ErrAlreadyJoined    = errors.New("mission: player already joined")
	ErrNotPlayer        = errors.New("mission: caller is not a player")
	ErrAlreadyWon       = errors.New("mission: player already won a round")
	ErrAllRoundsClaimed = errors.New("mission: all rounds claimed")

	// payment
	ErrWrongFee      = errors.New("mission: wrong enrollment amount")
	ErrInvalidAmount = errors.New("mission: amount must be positive")

	// caller and limits
	ErrContractCaller = errors.New("mission: contract callers are not allowed")
	ErrRateLimited    = errors.New("mission: enrollment rate limit reached")

	// lifecycle
	ErrNotFailed        = errors.New("mission: mission has not failed")
	ErrNotTerminal      = errors.New("mission: mission is not finished")
	ErrNotPartlySuccess = errors.New("mission: mission is not partly successful")

	// internal
	ErrPayoutRegression    = errors.New("mission: payout entitlement regressed below amount already paid")
	ErrTransferFailed      = errors.New("mission: value transfer failed")
	ErrOperationInProgress = errors.New("mission: another operation is in progress")
)

// CooldownError carries the time left before the next round may be called.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%v: %d seconds remaining", ErrCooldown, int64(e.Remaining.Seconds()))
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

// FeeError reports a mismatched enrollment payment.
type FeeError struct {
	Expected *uint256.Int
	Sent     *uint256.Int
}

func (e *FeeError) Error() string {
	return fmt.Sprintf("%v: expected %s, sent %s", ErrWrongFee, e.Expected.Dec(), e.Sent.Dec())
}

func (e *FeeError) Unwrap() error { return ErrWrongFee }

// RateLimitError reports which cap blocked the enrollment and when to retry.
type RateLimitError struct {
	Breach  limiter.Breach
	RetryIn time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: %s limit, retry in %d seconds", ErrRateLimited, e.Breach, int64(e.RetryIn.Seconds()))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// TransferError wraps a failed value transfer.
type TransferError struct {
	To     common.Address
	Amount *uint256.Int
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%v: %s to %s: %v", ErrTransferFailed, e.Amount.Dec(), e.To.Hex(), e.Err)
}

func (e *TransferError) Unwrap() []error { return []error{ErrTransferFailed, e.Err} }
