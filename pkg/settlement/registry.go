// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settlement

import (
	"fmt"
	"sync"
)

// Registry maps mission type names to split policies.
// It provides thread-safe registration and lookup of policies.
type Registry struct {
	policies map[string]Policy
	fallback Policy
	mu       sync.RWMutex
}

// NewRegistry creates a registry that resolves unknown keys to fallback.
func NewRegistry(fallback Policy) *Registry {
	if fallback == nil {
		fallback = ReservePolicy{}
	}
	return &Registry{
		policies: make(map[string]Policy),
		fallback: fallback,
	}
}

// Register binds a policy to a key.
// Returns an error if the key is already bound.
func (r *Registry) Register(key string, policy Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if policy == nil {
		return fmt.Errorf("policy for %s is nil", key)
	}
	if _, exists := r.policies[key]; exists {
		return fmt.Errorf("policy for %s already registered", key)
	}

	r.policies[key] = policy
	return nil
}

// Unregister removes the policy bound to key.
func (r *Registry) Unregister(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[key]; !exists {
		return fmt.Errorf("policy for %s not found", key)
	}

	delete(r.policies, key)
	return nil
}

// Get returns the policy bound to key, or the fallback policy.
func (r *Registry) Get(key string) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if policy, ok := r.policies[key]; ok {
		return policy
	}
	return r.fallback
}

// Count returns the number of explicitly bound policies.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.policies)
}
