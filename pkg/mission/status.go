// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"time"
)

// DeriveStatus computes the status of a mission from its counters and the
// wall clock. A pinned terminal status always wins; nothing else is stored.
func DeriveStatus(now time.Time, d *Data) Status {
	if d.FinalStatus.IsTerminal() {
		return d.FinalStatus
	}

	if now.Before(d.EnrollmentStart) {
		return StatusPending
	}
	if !now.After(d.EnrollmentEnd) {
		return StatusEnrolling
	}

	if len(d.Players) < d.EnrollmentMinPlayers {
		return StatusFailed
	}
	if now.Before(d.MissionStart) {
		return StatusArming
	}

	if d.RoundCount >= d.MissionRounds {
		return StatusSuccess
	}
	if !now.Before(d.MissionEnd) {
		if d.RoundCount == 0 {
			return StatusFailed
		}
		return StatusPartlySuccess
	}

	if d.cooldownRemaining(now) > 0 {
		return StatusPaused
	}
	return StatusActive
}

// cooldown is the pause that follows the most recent round. The pause before
// the final round uses the last-round duration.
func (d *Data) cooldown() time.Duration {
	if d.RoundCount == d.MissionRounds-1 {
		return d.LastRoundPauseDuration
	}
	return d.RoundPauseDuration
}

func (d *Data) cooldownRemaining(now time.Time) time.Duration {
	if d.PauseTimestamp.IsZero() {
		return 0
	}
	remaining := d.PauseTimestamp.Add(d.cooldown()).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanTransition reports whether a published status change from one status to
// another respects the lifecycle graph. Only Active and Paused may alternate.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if (from == StatusActive && to == StatusPaused) || (from == StatusPaused && to == StatusActive) {
		return true
	}
	return rank(to) > rank(from)
}

func rank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusEnrolling:
		return 1
	case StatusArming:
		return 2
	case StatusActive, StatusPaused:
		return 3
	case StatusPartlySuccess:
		return 4
	default:
		return 5
	}
}
