package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/AccelByte/extend-mission-factory/pkg/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var _ service.ValueBank = (*Bank)(nil)

// Bank is an in-memory value store for testing.
type Bank struct {
	// TransferFunc, when set, runs before every transfer. A non-nil error
	// fails the transfer.
	TransferFunc func(ctx context.Context, from, to common.Address, amount *uint256.Int) error

	// Rejecting recipients fail every transfer sent to them
	Rejecting map[common.Address]bool

	// Call tracking
	TransferCalls []TransferCall

	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
}

// TransferCall tracks parameters for Transfer calls
type TransferCall struct {
	From   common.Address
	To     common.Address
	Amount *uint256.Int
	Err    error
}

// NewBank creates an empty mock bank
func NewBank() *Bank {
	return &Bank{
		Rejecting: make(map[common.Address]bool),
		balances:  make(map[common.Address]*uint256.Int),
	}
}

// Credit adds amount to addr out of thin air
func (b *Bank) Credit(_ context.Context, addr common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creditLocked(addr, amount)
	return nil
}

// Balance returns the balance of addr
func (b *Bank) Balance(_ context.Context, addr common.Address) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal := b.balances[addr]; bal != nil {
		return bal.Clone(), nil
	}
	return new(uint256.Int), nil
}

// Transfer moves amount from one account to another
func (b *Bank) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if b.TransferFunc != nil {
		if err := b.TransferFunc(ctx, from, to, amount); err != nil {
			b.track(from, to, amount, err)
			return err
		}
	}

	b.mu.Lock()
	err := b.transferLocked(from, to, amount)
	b.mu.Unlock()

	b.track(from, to, amount, err)
	return err
}

// SetRejecting makes transfers to addr fail
func (b *Bank) SetRejecting(addr common.Address, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Rejecting[addr] = on
}

// BalanceOf is Balance without the context, as a uint64
func (b *Bank) BalanceOf(addr common.Address) uint64 {
	bal, _ := b.Balance(context.Background(), addr)
	return bal.Uint64()
}

func (b *Bank) transferLocked(from, to common.Address, amount *uint256.Int) error {
	if b.Rejecting[to] {
		return fmt.Errorf("recipient %s rejected transfer", to.Hex())
	}
	bal := b.balances[from]
	if bal == nil || bal.Lt(amount) {
		return fmt.Errorf("insufficient balance in %s", from.Hex())
	}
	b.balances[from] = new(uint256.Int).Sub(bal, amount)
	b.creditLocked(to, amount)
	return nil
}

func (b *Bank) creditLocked(addr common.Address, amount *uint256.Int) {
	bal := b.balances[addr]
	if bal == nil {
		bal = new(uint256.Int)
	}
	b.balances[addr] = new(uint256.Int).Add(bal, amount)
}

func (b *Bank) track(from, to common.Address, amount *uint256.Int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TransferCalls = append(b.TransferCalls, TransferCall{From: from, To: to, Amount: amount.Clone(), Err: err})
}
