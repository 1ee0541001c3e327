// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// Scale is the fixed-point factor of the progress fraction.
const Scale = 10_000_000_000

// Payout computes the amount owed for a round claimed at now.
//
// Entitlement grows linearly from missionStart to missionEnd. The payout is
// the entitlement minus everything already paid, capped by what is left, so
// cumulative payouts never exceed croStart.
func Payout(now time.Time, d *Data) (*uint256.Int, error) {
	duration := d.MissionEnd.Sub(d.MissionStart)
	if duration <= 0 {
		return nil, fmt.Errorf("%w: empty mission window", ErrPayoutRegression)
	}

	elapsed := now.Sub(d.MissionStart)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > duration {
		elapsed = duration
	}

	progress := new(uint256.Int).Mul(uint256.NewInt(uint64(elapsed/time.Second)), uint256.NewInt(Scale))
	progress.Div(progress, uint256.NewInt(uint64(duration/time.Second)))

	croStart := amountOrZero(d.CroStart)
	croCurrent := amountOrZero(d.CroCurrent)

	paidSoFar := new(uint256.Int).Sub(croStart, croCurrent)

	entitlement := new(uint256.Int).Mul(croStart, progress)
	entitlement.Div(entitlement, uint256.NewInt(Scale))

	if entitlement.Lt(paidSoFar) {
		return nil, fmt.Errorf("%w: entitlement %s, paid %s", ErrPayoutRegression, entitlement.Dec(), paidSoFar.Dec())
	}

	payout := new(uint256.Int).Sub(entitlement, paidSoFar)
	if payout.Gt(croCurrent) {
		payout = croCurrent
	}
	return payout, nil
}
