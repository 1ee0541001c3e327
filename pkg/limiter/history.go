// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package limiter

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// UpdateFunc computes the next history of a user from the current one. When
// write is false the stored history is left as is. It may run more than once
// if the store retries a conflicting update.
type UpdateFunc func(history []int64) (next []int64, write bool)

// HistoryStore persists per-user enrollment timestamps (unix seconds,
// append-ordered).
type HistoryStore interface {
	Load(ctx context.Context, user common.Address) ([]int64, error)

	// Update reads, transforms and writes the history of user as one atomic
	// step with respect to every other Update of the same user.
	Update(ctx context.Context, user common.Address, fn UpdateFunc) error
}

// MemoryHistoryStore keeps histories in process memory.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[common.Address][]int64
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{entries: make(map[common.Address][]int64)}
}

func (m *MemoryHistoryStore) Load(_ context.Context, user common.Address) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyHistory(m.entries[user]), nil
}

func (m *MemoryHistoryStore) Update(_ context.Context, user common.Address, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, write := fn(copyHistory(m.entries[user]))
	if !write {
		return nil
	}
	if len(next) == 0 {
		delete(m.entries, user)
		return nil
	}
	m.entries[user] = copyHistory(next)
	return nil
}

func copyHistory(history []int64) []int64 {
	out := make([]int64, len(history))
	copy(out, history)
	return out
}
