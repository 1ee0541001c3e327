// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package registry

import "errors"

var (
	ErrInvalidParams      = errors.New("registry: invalid mission parameters")
	ErrUnknownMission     = errors.New("registry: unknown mission")
	ErrNotAuthorized      = errors.New("registry: caller is not owner or authorized")
	ErrNotOwner           = errors.New("registry: caller is not the owner")
	ErrNotCreator         = errors.New("registry: caller is not the mission creator")
	ErrUserMissionTooSoon = errors.New("registry: creator made a user mission less than 24h ago")
	ErrMissionNotFinished = errors.New("registry: mission has not reached a terminal status")
	ErrNoProposal         = errors.New("registry: no pending ownership proposal")
	ErrProposalExpired    = errors.New("registry: ownership proposal expired")
	ErrSameApprover       = errors.New("registry: proposal must be confirmed by a different caller")
	ErrInsufficientFunds  = errors.New("registry: withdrawal exceeds platform balance")
	ErrZeroAddress        = errors.New("registry: zero address")
)
