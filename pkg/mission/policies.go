// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"github.com/AccelByte/extend-mission-factory/pkg/settlement"
)

// DefaultPolicies binds the settlement split of every mission type.
// Invite-only missions pay the platform, user missions share with their
// creator, and every other type feeds its reserve pool.
func DefaultPolicies() *settlement.Registry {
	r := settlement.NewRegistry(settlement.ReservePolicy{})
	_ = r.Register(TypeInviteOnly.String(), settlement.PlatformPolicy{})
	_ = r.Register(TypeUserMission.String(), settlement.CreatorPolicy{})
	return r
}
