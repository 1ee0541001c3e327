package keeper

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/common"
	"github.com/AccelByte/extend-mission-factory/pkg/metrics"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is how often the keeper scans missions.
const DefaultInterval = 30 * time.Second

// Source lists the missions the keeper looks after.
type Source interface {
	Engines() []*mission.Engine
}

// Task pairs a rule with the action it triggers.
type Task struct {
	Rule   Rule
	Action Action
}

// Result is the outcome of one executed task.
type Result struct {
	MissionID gethcommon.Address
	RuleID    string
	ActionID  string
	Reason    string
	Err       error
}

// DefaultTasks returns the builtin upkeep tasks.
func DefaultTasks() []Task {
	return []Task{
		{Rule: StartCheckRule{}, Action: CheckStartAction{}},
		{Rule: RefundRule{}, Action: RefundAction{}},
		{Rule: SettleRule{}, Action: SettleAction{}},
	}
}

// Keeper periodically evaluates upkeep rules against every mission and runs
// the action of the highest-priority match. At most one action runs per
// mission per pass; follow-up work is picked up on the next pass.
type Keeper struct {
	source   Source
	tasks    []Task
	interval time.Duration
	clock    func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// Option customizes a Keeper.
type Option func(*Keeper)

// WithTasks replaces the builtin tasks.
func WithTasks(tasks ...Task) Option {
	return func(k *Keeper) { k.tasks = tasks }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(k *Keeper) { k.clock = clock }
}

// New creates a keeper. A non-positive interval falls back to DefaultInterval.
func New(source Source, interval time.Duration, opts ...Option) *Keeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	k := &Keeper{
		source:   source,
		tasks:    DefaultTasks(),
		interval: interval,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}

	sort.SliceStable(k.tasks, func(i, j int) bool {
		return k.tasks[i].Rule.Priority() > k.tasks[j].Rule.Priority()
	})
	return k
}

// RunOnce evaluates every mission at now and executes due actions.
func (k *Keeper) RunOnce(ctx context.Context, now time.Time) []Result {
	var results []Result

	for _, eng := range k.source.Engines() {
		if ctx.Err() != nil {
			break
		}
		snap := eng.Snapshot(now)

		for _, task := range k.tasks {
			matched, trigger := task.Rule.Evaluate(snap, now)
			if !matched || trigger == nil {
				continue
			}
			results = append(results, k.execute(ctx, eng, task, trigger, now))
			break
		}
	}

	return results
}

func (k *Keeper) execute(ctx context.Context, eng *mission.Engine, task Task, trigger *Trigger, now time.Time) Result {
	actionID := task.Action.ID()
	scope := common.GetScopeFromContext(ctx, "Keeper."+actionID)
	defer scope.Finish()
	scope.SetAttributes("mission.id", trigger.MissionID.Hex())
	scope.TraceEvent(trigger.Reason)

	scope.Log.Infof("rule %s triggered for mission %s: %s", trigger.RuleID, trigger.MissionID.Hex(), trigger.Reason)

	err := task.Action.Execute(scope.Ctx, eng, trigger, now)
	switch {
	case err == nil:
		metrics.KeeperActionsTotal.WithLabelValues(actionID, "success").Inc()
		scope.Log.Infof("action %s completed for mission %s", actionID, trigger.MissionID.Hex())
	case errors.Is(err, mission.ErrOperationInProgress):
		metrics.KeeperActionsTotal.WithLabelValues(actionID, "busy").Inc()
		scope.Log.Debugf("action %s skipped for mission %s: %v", actionID, trigger.MissionID.Hex(), err)
	default:
		metrics.KeeperActionsTotal.WithLabelValues(actionID, "failed").Inc()
		scope.TraceError(err)
		scope.Log.Warnf("action %s failed for mission %s: %v", actionID, trigger.MissionID.Hex(), err)
	}

	return Result{
		MissionID: trigger.MissionID,
		RuleID:    trigger.RuleID,
		ActionID:  actionID,
		Reason:    trigger.Reason,
		Err:       err,
	}
}

// Start runs passes on a ticker until Stop is called or ctx is done.
func (k *Keeper) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cancel != nil {
		return
	}

	ctx, k.cancel = context.WithCancel(ctx)
	k.stopped = make(chan struct{})

	go func() {
		defer close(k.stopped)
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()

		logrus.Infof("keeper started (interval: %s, tasks: %d)", k.interval, len(k.tasks))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k.RunOnce(ctx, k.clock().UTC())
			}
		}
	}()
}

// Stop ends the ticker loop and waits for an in-flight pass to finish.
func (k *Keeper) Stop() {
	k.mu.Lock()
	cancel, stopped := k.cancel, k.stopped
	k.cancel = nil
	k.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	logrus.Info("keeper stopped")
}
