package limiter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// historyStoreKeyPrefix is the prefix for all enrollment history keys
	historyStoreKeyPrefix = "mission_factory:enrollments:"

	defaultUpdateRetries  = 10
	defaultUpdateInterval = 5 * time.Millisecond
)

// RedisHistoryStore implements HistoryStore using Redis. Each user's
// history is a JSON array that expires one monthly window after the last
// write, since nothing older is ever consulted. Updates are optimistic
// WATCH/MULTI transactions, so limiter instances in different processes
// sharing one Redis never both take the last slot.
type RedisHistoryStore struct {
	client redis.UniversalClient
}

// NewRedisHistoryStore creates a new Redis-backed history store.
func NewRedisHistoryStore(client redis.UniversalClient) *RedisHistoryStore {
	return &RedisHistoryStore{client: client}
}

func makeHistoryKey(user common.Address) string {
	return fmt.Sprintf("%s%s", historyStoreKeyPrefix, user.Hex())
}

// Load retrieves the enrollment history of user. A missing key is an empty
// history.
func (r *RedisHistoryStore) Load(ctx context.Context, user common.Address) ([]int64, error) {
	history, err := decodeHistory(r.client.Get(ctx, makeHistoryKey(user)))
	if err != nil {
		logrus.Errorf("failed to get enrollment history for %s: %v", user.Hex(), err)
		return nil, err
	}
	return history, nil
}

// Update applies fn inside a watched transaction on the user's key. A
// transaction that lost a race is retried with exponential backoff.
func (r *RedisHistoryStore) Update(ctx context.Context, user common.Address, fn UpdateFunc) error {
	key := makeHistoryKey(user)

	txf := func(tx *redis.Tx) error {
		history, err := decodeHistory(tx.Get(ctx, key))
		if err != nil {
			return err
		}
		next, write := fn(history)
		if !write {
			return nil
		}

		var data []byte
		if len(next) > 0 {
			if data, err = json.Marshal(next); err != nil {
				return fmt.Errorf("failed to marshal enrollment history: %w", err)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(next) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, data, MonthlyWindow)
			return nil
		})
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultUpdateInterval

	op := func() error {
		err := r.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			logrus.Debugf("enrollment history update for %s conflicted, retrying", user.Hex())
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, defaultUpdateRetries), ctx)); err != nil {
		return fmt.Errorf("failed to update enrollment history: %w", err)
	}
	return nil
}

func decodeHistory(cmd *redis.StringCmd) ([]int64, error) {
	data, err := cmd.Result()
	if err == redis.Nil {
		return []int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment history: %w", err)
	}

	var history []int64
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enrollment history: %w", err)
	}
	return history, nil
}
