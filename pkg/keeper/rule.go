package keeper

import (
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Rule inspects a mission snapshot and decides whether upkeep is due.
// Rules are paired with an Action in a Task and evaluated by the Keeper.
type Rule interface {
	// ID returns unique rule identifier.
	ID() string

	// Priority orders rules of the same mission (higher = first).
	Priority() int

	// Evaluate returns true and a trigger if the mission needs this upkeep.
	Evaluate(snap mission.Snapshot, now time.Time) (bool, *Trigger)
}

// Trigger represents a rule match that should execute an action.
type Trigger struct {
	RuleID    string
	MissionID common.Address
	Timestamp time.Time
	Reason    string
	Priority  int
}

// NewTrigger creates a new trigger with the given parameters.
func NewTrigger(ruleID string, missionID common.Address, reason string, priority int, now time.Time) *Trigger {
	return &Trigger{
		RuleID:    ruleID,
		MissionID: missionID,
		Timestamp: now,
		Reason:    reason,
		Priority:  priority,
	}
}

// StartCheckRule fires once enrollment has closed and nobody has decided
// whether the mission arms or fails.
type StartCheckRule struct{}

func (StartCheckRule) ID() string    { return "start_check_due" }
func (StartCheckRule) Priority() int { return 30 }

func (r StartCheckRule) Evaluate(snap mission.Snapshot, now time.Time) (bool, *Trigger) {
	if snap.StartChecked || snap.FinalStatus.IsTerminal() {
		return false, nil
	}
	if !now.After(snap.EnrollmentEnd) || !now.Before(snap.MissionStart) {
		return false, nil
	}
	reason := fmt.Sprintf("enrollment closed with %d of %d required players", len(snap.Players), snap.EnrollmentMinPlayers)
	return true, NewTrigger(r.ID(), snap.ID, reason, r.Priority(), now)
}

// RefundRule fires while a failed mission still holds deposits of players
// that were never refunded, including refunds that failed earlier.
type RefundRule struct{}

func (RefundRule) ID() string    { return "refund_pending" }
func (RefundRule) Priority() int { return 20 }

func (r RefundRule) Evaluate(snap mission.Snapshot, now time.Time) (bool, *Trigger) {
	if snap.Status != mission.StatusFailed {
		return false, nil
	}
	pending := 0
	for _, p := range snap.Players {
		if !p.Refunded {
			pending++
		}
	}
	if pending == 0 {
		return false, nil
	}
	return true, NewTrigger(r.ID(), snap.ID, fmt.Sprintf("%d players awaiting refund", pending), r.Priority(), now)
}

// SettleRule fires when a finished mission still holds a balance beyond
// the deposits reserved for failed refunds. A failed mission is only
// settled after every player's refund has been attempted.
type SettleRule struct{}

func (SettleRule) ID() string    { return "settle_pending" }
func (SettleRule) Priority() int { return 10 }

func (r SettleRule) Evaluate(snap mission.Snapshot, now time.Time) (bool, *Trigger) {
	if !snap.Status.IsTerminal() {
		return false, nil
	}

	failed := uint64(0)
	for _, p := range snap.Players {
		if p.Refunded {
			continue
		}
		if snap.Status == mission.StatusFailed && !p.RefundFailed {
			return false, nil
		}
		if p.RefundFailed {
			failed++
		}
	}

	distributable := distributable(snap, failed)
	if distributable.IsZero() {
		return false, nil
	}
	reason := fmt.Sprintf("%s left to distribute", distributable.Dec())
	return true, NewTrigger(r.ID(), snap.ID, reason, r.Priority(), now)
}

func distributable(snap mission.Snapshot, failedRefunds uint64) *uint256.Int {
	balance := new(uint256.Int)
	if snap.Balance != nil {
		balance.Set(snap.Balance)
	}
	if snap.EnrollmentAmount == nil || failedRefunds == 0 {
		return balance
	}
	reserved := new(uint256.Int).Mul(snap.EnrollmentAmount, uint256.NewInt(failedRefunds))
	if balance.Lt(reserved) {
		return new(uint256.Int)
	}
	return balance.Sub(balance, reserved)
}
