package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

const (
	// bankBalancesKey is the hash of account -> decimal balance
	bankBalancesKey = "mission_factory:bank:balances"
	// bankRejectingKey is the set of accounts that refuse incoming value
	bankRejectingKey = "mission_factory:bank:rejecting"
)

var (
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrRecipientRejected   = errors.New("bank: recipient rejected transfer")
)

var _ ValueBank = (*RedisBank)(nil)

// RedisBank keeps account balances in a Redis hash and moves value with
// optimistic WATCH/MULTI transactions. Conflicting writers are retried with
// exponential backoff.
type RedisBank struct {
	client redis.UniversalClient
	cfg    RedisBankConfig
}

type RedisBankConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
}

// NewRedisBank creates a new Redis-backed bank.
func NewRedisBank(client redis.UniversalClient, cfg RedisBankConfig) *RedisBank {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 10 * time.Millisecond
	}
	return &RedisBank{client: client, cfg: cfg}
}

// Credit adds amount to addr. It is how value enters the system.
func (b *RedisBank) Credit(ctx context.Context, addr common.Address, amount *uint256.Int) error {
	return b.update(ctx, func(tx *redis.Tx) (map[string]interface{}, error) {
		bal, err := b.read(ctx, tx, addr)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{addr.Hex(): new(uint256.Int).Add(bal, amount).Dec()}, nil
	})
}

// Balance returns the balance of addr. Unknown accounts hold zero.
func (b *RedisBank) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	val, err := b.client.HGet(ctx, bankBalancesKey, addr.Hex()).Result()
	if err == redis.Nil {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return parseAmount(val)
}

// Transfer moves amount from one account to another. Either both balances
// change or neither does.
func (b *RedisBank) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	rejected, err := b.client.SIsMember(ctx, bankRejectingKey, to.Hex()).Result()
	if err != nil {
		return fmt.Errorf("failed to check recipient: %w", err)
	}
	if rejected {
		return fmt.Errorf("%w: %s", ErrRecipientRejected, to.Hex())
	}

	err = b.update(ctx, func(tx *redis.Tx) (map[string]interface{}, error) {
		fromBal, err := b.read(ctx, tx, from)
		if err != nil {
			return nil, err
		}
		if fromBal.Lt(amount) {
			return nil, fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBal.Dec(), amount.Dec())
		}
		if from == to {
			return nil, nil
		}
		toBal, err := b.read(ctx, tx, to)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			from.Hex(): new(uint256.Int).Sub(fromBal, amount).Dec(),
			to.Hex():   new(uint256.Int).Add(toBal, amount).Dec(),
		}, nil
	})
	if err != nil {
		return err
	}

	logrus.Debugf("bank moved %s from %s to %s", amount.Dec(), from.Hex(), to.Hex())
	return nil
}

// SetRejecting marks addr as refusing incoming value, or clears the mark.
func (b *RedisBank) SetRejecting(ctx context.Context, addr common.Address, on bool) error {
	if on {
		return b.client.SAdd(ctx, bankRejectingKey, addr.Hex()).Err()
	}
	return b.client.SRem(ctx, bankRejectingKey, addr.Hex()).Err()
}

// update runs compute inside a watched transaction on the balances hash
// and writes the returned fields. Lost races are retried.
func (b *RedisBank) update(ctx context.Context, compute func(tx *redis.Tx) (map[string]interface{}, error)) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.cfg.InitialInterval

	op := func() error {
		err := b.client.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := compute(tx)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, bankBalancesKey, fields)
				return nil
			})
			return err
		}, bankBalancesKey)

		if err == redis.TxFailedErr {
			logrus.Debugf("bank transaction conflicted, retrying")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, b.cfg.MaxRetries), ctx))
}

func (b *RedisBank) read(ctx context.Context, tx *redis.Tx, addr common.Address) (*uint256.Int, error) {
	val, err := tx.HGet(ctx, bankBalancesKey, addr.Hex()).Result()
	if err == redis.Nil {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return parseAmount(val)
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance %q: %w", s, err)
	}
	return v, nil
}
