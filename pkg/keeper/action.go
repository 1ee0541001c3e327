package keeper

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/sirupsen/logrus"
)

// Action performs upkeep on one mission in response to a trigger.
type Action interface {
	// ID returns unique action identifier.
	ID() string

	// Execute performs the action against the mission engine.
	Execute(ctx context.Context, eng *mission.Engine, trigger *Trigger, now time.Time) error
}

// CheckStartAction arms the mission or fails and refunds it.
type CheckStartAction struct{}

func (CheckStartAction) ID() string { return "check_start_condition" }

func (CheckStartAction) Execute(ctx context.Context, eng *mission.Engine, _ *Trigger, now time.Time) error {
	st, err := eng.CheckStartCondition(ctx, now)
	if err != nil {
		return err
	}
	logrus.Infof("mission %s start condition checked: %s", eng.ID().Hex(), st)
	return nil
}

// RefundAction retries the refunds of a failed mission.
type RefundAction struct{}

func (RefundAction) ID() string { return "refund_all" }

func (RefundAction) Execute(ctx context.Context, eng *mission.Engine, _ *Trigger, now time.Time) error {
	report, err := eng.RefundAll(ctx, now)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d refunds failed", len(report.Failed), len(report.Failed)+len(report.Refunded))
	}
	return nil
}

// SettleAction distributes what a finished mission still holds.
type SettleAction struct{}

func (SettleAction) ID() string { return "settle" }

func (SettleAction) Execute(ctx context.Context, eng *mission.Engine, _ *Trigger, now time.Time) error {
	_, err := eng.Settle(ctx, false, now)
	return err
}
