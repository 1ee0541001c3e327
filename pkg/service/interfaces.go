package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Service interfaces for the value and account collaborators of the
// mission factory.
//
// The registry and engines only see the narrow interfaces they declare;
// these describe the full surface the transport layer needs.

// ValueBank moves value between accounts and exposes balances.
type ValueBank interface {
	Credit(ctx context.Context, addr common.Address, amount *uint256.Int) error
	Balance(ctx context.Context, addr common.Address) (*uint256.Int, error)
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// ContractDetector reports whether an address is a contract account.
type ContractDetector interface {
	IsContract(ctx context.Context, addr common.Address) (bool, error)
}
