package handler

import (
	"context"

	"github.com/AccelByte/extend-mission-factory/pkg/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// Authorize adds an address to the authorized set. Owner only.
func (s *MissionService) Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.Authorize")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	addr, err := getAddress(req, "address")
	if err != nil {
		return nil, err
	}
	if err := s.registry.Authorize(caller, addr); err != nil {
		scope.Log.Warnf("authorize %s by %s rejected: %v", addr.Hex(), caller.Hex(), err)
		return nil, toStatus(err)
	}
	return fields(map[string]any{"address": addr.Hex(), "authorized": true})
}

// Deauthorize removes an address from the authorized set. Owner only.
func (s *MissionService) Deauthorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.Deauthorize")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	addr, err := getAddress(req, "address")
	if err != nil {
		return nil, err
	}
	if err := s.registry.Deauthorize(caller, addr); err != nil {
		return nil, toStatus(err)
	}
	return fields(map[string]any{"address": addr.Hex(), "authorized": false})
}

// ProposeOwner starts a two-step ownership transfer
func (s *MissionService) ProposeOwner(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.ProposeOwner")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	candidate, err := getAddress(req, "candidate")
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	if err := s.registry.ProposeOwner(caller, candidate, now); err != nil {
		return nil, toStatus(err)
	}
	return fields(map[string]any{"candidate": candidate.Hex()})
}

// ConfirmOwner completes a pending ownership transfer
func (s *MissionService) ConfirmOwner(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.ConfirmOwner")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	owner, err := s.registry.ConfirmOwner(caller, now)
	if err != nil {
		return nil, toStatus(err)
	}
	return fields(map[string]any{"owner": owner.Hex()})
}

func (s *MissionService) SetRateLimits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	weekly, err := getInt(req, "weekly", 0)
	if err != nil {
		return nil, err
	}
	monthly, err := getInt(req, "monthly", 0)
	if err != nil {
		return nil, err
	}
	if err := s.registry.SetRateLimits(caller, int(weekly), int(monthly)); err != nil {
		return nil, toStatus(err)
	}
	return fields(map[string]any{"weekly": weekly, "monthly": monthly})
}

func (s *MissionService) SetPurgeBatchSize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	size, err := getInt(req, "size", 0)
	if err != nil {
		return nil, err
	}
	if err := s.registry.SetPurgeBatchSize(caller, int(size)); err != nil {
		return nil, toStatus(err)
	}
	return fields(map[string]any{"size": size})
}

// WithdrawPlatformBalance sends unreserved factory funds. Owner only.
func (s *MissionService) WithdrawPlatformBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.WithdrawPlatformBalance")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	to, err := getAddress(req, "to")
	if err != nil {
		return nil, err
	}
	amount, err := getAmount(req, "amount")
	if err != nil {
		return nil, err
	}
	if err := s.registry.WithdrawPlatformBalance(scope.Ctx, caller, to, amount); err != nil {
		scope.Log.Warnf("withdrawal of %s by %s rejected: %v", amount.Dec(), caller.Hex(), err)
		return nil, toStatus(err)
	}
	return fields(map[string]any{"to": to.Hex(), "amount": amount.Dec()})
}
