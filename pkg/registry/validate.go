// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package registry

import (
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MaxPlayers        = 100
	MaxPlayersRelaxed = 25
	MinPlayersRelaxed = 3
	MinCooldown       = 60 * time.Second
	UserMissionGap    = 24 * time.Hour
)

// ValidateParams checks the structural constraints of a new mission.
// Invite-only and user missions use the relaxed small-group bounds.
func ValidateParams(p mission.Params) error {
	if !p.Type.Valid() {
		return invalid("unknown mission type %d", uint8(p.Type))
	}

	relaxed := p.Type.Relaxed()

	minRounds := 1
	if relaxed {
		minRounds = 2
	}
	if p.MissionRounds < minRounds {
		return invalid("missionRounds %d below %d", p.MissionRounds, minRounds)
	}

	if relaxed {
		if p.EnrollmentMinPlayers < MinPlayersRelaxed {
			return invalid("enrollmentMinPlayers %d below %d", p.EnrollmentMinPlayers, MinPlayersRelaxed)
		}
		if p.MissionRounds > p.EnrollmentMinPlayers-1 {
			return invalid("missionRounds %d must be below enrollmentMinPlayers %d", p.MissionRounds, p.EnrollmentMinPlayers)
		}
	} else if p.EnrollmentMinPlayers < p.MissionRounds {
		return invalid("enrollmentMinPlayers %d below missionRounds %d", p.EnrollmentMinPlayers, p.MissionRounds)
	}

	maxPlayers := MaxPlayers
	if relaxed {
		maxPlayers = MaxPlayersRelaxed
	}
	if p.EnrollmentMaxPlayers < p.EnrollmentMinPlayers {
		return invalid("enrollmentMaxPlayers %d below enrollmentMinPlayers %d", p.EnrollmentMaxPlayers, p.EnrollmentMinPlayers)
	}
	if p.EnrollmentMaxPlayers > maxPlayers {
		return invalid("enrollmentMaxPlayers %d above %d", p.EnrollmentMaxPlayers, maxPlayers)
	}

	if !p.EnrollmentStart.Before(p.EnrollmentEnd) {
		return invalid("enrollmentStart must be before enrollmentEnd")
	}
	if p.MissionStart.Before(p.EnrollmentEnd) {
		return invalid("missionStart must not be before enrollmentEnd")
	}
	if !p.MissionStart.Before(p.MissionEnd) {
		return invalid("missionStart must be before missionEnd")
	}

	if p.RoundPauseDuration < MinCooldown || p.LastRoundPauseDuration < MinCooldown {
		return invalid("round cooldowns must be at least %s", MinCooldown)
	}

	if p.EnrollmentAmount == nil || p.EnrollmentAmount.IsZero() {
		return invalid("enrollmentAmount must be positive")
	}

	if p.Type == mission.TypeInviteOnly && p.Commitment == (common.Hash{}) {
		return invalid("invite-only missions need a passphrase commitment")
	}
	if p.Type == mission.TypeUserMission && p.Creator == (common.Address{}) {
		return invalid("user missions need a creator")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}
