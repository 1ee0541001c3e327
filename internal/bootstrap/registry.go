// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-mission-factory/pkg/factoryconfig"
	"github.com/AccelByte/extend-mission-factory/pkg/ledger"
	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"github.com/AccelByte/extend-mission-factory/pkg/state"
	"github.com/sirupsen/logrus"
)

// Dependencies holds the collaborators the registry is built from.
type Dependencies struct {
	Limiter  *limiter.Limiter
	Ledger   *ledger.Ledger
	Bank     registry.Bank
	Store    *state.RedisStore
	Detector mission.ContractDetector
}

// InitRegistry creates the mission registry from the factory config.
//
// ============================================================
// DEVELOPER: Settlement policies
// ============================================================
// Each mission type settles through a policy looked up by name
// (see pkg/mission/policies.go). To change how a type splits its
// remaining balance, register a different settlement.Policy in
// mission.DefaultPolicies().
// ============================================================
func InitRegistry(ctx context.Context, fc *factoryconfig.Config, deps Dependencies) (*registry.Registry, error) {
	cfg := registry.Config{
		Owner:      fc.OwnerAddress(),
		Factory:    fc.Factory(),
		Authorized: fc.AuthorizedAddresses(),
		Limiter:    deps.Limiter,
		Ledger:     deps.Ledger,
		Bank:       deps.Bank,
		Detector:   deps.Detector,
	}
	if deps.Store != nil {
		cfg.Mirror = deps.Store
	}

	reg, err := registry.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	if deps.Store != nil {
		previous, found, err := deps.Store.LoadStats(ctx)
		switch {
		case err != nil:
			logrus.Warnf("failed to read previous registry stats: %v", err)
		case found:
			logrus.Infof("previous run mirrored %d missions (%d succeeded, %d failed)",
				previous.Missions, previous.SuccessCount, previous.FailureCount)
		}
	}

	logrus.Infof("initialized mission registry (owner: %s, factory: %s, authorized: %d)",
		fc.OwnerAddress().Hex(), fc.Factory().Hex(), len(fc.AuthorizedAddresses()))

	return reg, nil
}
