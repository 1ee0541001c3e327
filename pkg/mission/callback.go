// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"context"
	"math/big"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Callback is the capability the registry hands to each mission. The mission
// never holds the registry itself.
type Callback interface {
	// PublishStatus records a status change. snap is a copy owned by the callee.
	PublishStatus(ctx context.Context, st Status, now time.Time, snap Data)

	// RegisterFunds returns unclaimed funds to the reserve pool of t.
	RegisterFunds(ctx context.Context, t Type, amount *uint256.Int) error

	// ReserveEnrollment checks the enrollment caps of user and, when allowed,
	// takes the slot in the same step.
	ReserveEnrollment(ctx context.Context, user common.Address, now time.Time) (limiter.Result, error)
	UndoEnrollment(ctx context.Context, user common.Address, from, to time.Time) error

	// Owner is the platform owner receiving the owner share.
	Owner() common.Address

	// Treasury is the account that holds reserve pools.
	Treasury() common.Address
}

// Bank moves value between accounts. A failed transfer leaves both balances
// untouched.
type Bank interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// ContractDetector reports whether an address is a contract account.
type ContractDetector interface {
	IsContract(ctx context.Context, addr common.Address) (bool, error)
}

// Commitment is the invite secret hash: keccak256(passphrase || enrollmentStart),
// with the start time encoded as a 32-byte big-endian unix timestamp.
func Commitment(passphrase string, enrollmentStart time.Time) common.Hash {
	ts := common.BigToHash(big.NewInt(enrollmentStart.Unix()))
	return crypto.Keccak256Hash([]byte(passphrase), ts.Bytes())
}
