package handler

import (
	"context"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/common"
	"github.com/AccelByte/extend-mission-factory/pkg/metrics"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/structpb"
)

// MissionService serves the mission factory over gRPC
type MissionService struct {
	registry *registry.Registry
	archive  Archive
	clock    func() time.Time
}

// Archive serves snapshots of missions the registry no longer holds, such
// as missions created before a restart.
type Archive interface {
	LoadMission(ctx context.Context, id gethcommon.Address) (mission.Snapshot, bool, error)
}

var _ MissionServiceServer = (*MissionService)(nil)

// Option customizes a MissionService
type Option func(*MissionService)

// WithClock overrides the time source. Write operations always use it; read
// queries may evaluate at a pinned "now" instead.
func WithClock(clock func() time.Time) Option {
	return func(s *MissionService) { s.clock = clock }
}

// WithArchive makes GetMission fall back to archived snapshots.
func WithArchive(a Archive) Option {
	return func(s *MissionService) { s.archive = a }
}

// NewMissionService creates a new mission service
func NewMissionService(reg *registry.Registry, opts ...Option) *MissionService {
	s := &MissionService{
		registry: reg,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// queryTime reads the optional "now" field of a read query, falling back to
// the clock. Write operations never consult it.
func (s *MissionService) queryTime(req *structpb.Struct) (time.Time, error) {
	if _, ok := field(req, "now"); ok {
		return getTime(req, "now")
	}
	return s.clock().UTC(), nil
}

// engine resolves the "missionId" field
func (s *MissionService) engine(req *structpb.Struct) (*mission.Engine, error) {
	id, err := getAddress(req, "missionId")
	if err != nil {
		return nil, err
	}
	eng, err := s.registry.Mission(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return eng, nil
}

// CreateMission validates parameters and creates a pending mission
func (s *MissionService) CreateMission(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.CreateMission")
	defer scope.Finish()

	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	params, err := decodeParams(req)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()

	id, err := s.registry.CreateMission(scope.Ctx, caller, params, now)
	if err != nil {
		scope.Log.Warnf("create mission by %s rejected: %v", caller.Hex(), err)
		return nil, toStatus(err)
	}
	scope.SetAttributes("mission.id", id.Hex())

	return fields(map[string]any{"missionId": id.Hex()})
}

// Enroll moves the paid amount from the player into the mission account and
// enrolls the player. The deposit is returned if the mission rejects.
func (s *MissionService) Enroll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.Enroll")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	player, err := getAddress(req, "player")
	if err != nil {
		return nil, err
	}
	paid, err := getAmount(req, "amount")
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()

	bank := s.registry.Bank()
	if err := bank.Transfer(scope.Ctx, player, eng.ID(), paid); err != nil {
		metrics.EnrollmentsTotal.WithLabelValues("payment_failed").Inc()
		scope.Log.Warnf("enrollment deposit from %s failed: %v", player.Hex(), err)
		return nil, toStatus(err)
	}

	err = eng.Enroll(scope.Ctx, player, paid, getString(req, "passphrase"), now)
	metrics.EnrollmentsTotal.WithLabelValues(enrollResult(err)).Inc()
	if err != nil {
		s.returnFunds(scope, eng.ID(), player, paid)
		logrus.Debugf("enrollment of %s in %s rejected: %v", player.Hex(), eng.ID().Hex(), err)
		return nil, toStatus(err)
	}

	return toStruct(eng.Rollup(now))
}

// CheckStartCondition arms the mission or fails and refunds it
func (s *MissionService) CheckStartCondition(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.CheckStartCondition")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()

	st, err := eng.CheckStartCondition(scope.Ctx, now)
	if err != nil {
		return nil, toStatus(err)
	}
	if st == mission.StatusFailed {
		s.countRefunds(eng)
	}
	return fields(map[string]any{"status": st.String()})
}

// CallRound pays the calling player the current round payout
func (s *MissionService) CallRound(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.CallRound")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	player, err := getAddress(req, "player")
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()

	res, err := eng.CallRound(scope.Ctx, player, now)
	if err != nil {
		return nil, toStatus(err)
	}
	metrics.RoundsPaidTotal.WithLabelValues(eng.Type().String()).Inc()
	scope.Log.Infof("round %d of %s paid %s to %s", res.Round, eng.ID().Hex(), res.Payout.Dec(), player.Hex())

	return toStruct(res)
}

// RefundAll retries refunds of a failed mission
func (s *MissionService) RefundAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.RefundAll")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()

	report, err := eng.RefundAll(scope.Ctx, now)
	metrics.RefundsTotal.WithLabelValues("refunded").Add(float64(len(report.Refunded)))
	metrics.RefundsTotal.WithLabelValues("failed").Add(float64(len(report.Failed)))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

// Settle distributes a finished mission's balance. Forcing the settlement
// past unrefunded players requires authorization.
func (s *MissionService) Settle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.Settle")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	force := getBool(req, "force")
	if force {
		caller, err := getAddress(req, "caller")
		if err != nil {
			return nil, err
		}
		if err := s.registry.RequireAuthorized(caller); err != nil {
			return nil, toStatus(err)
		}
	}
	now := s.clock().UTC()

	split, err := eng.Settle(scope.Ctx, force, now)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(split)
}

// ForceFinalize closes a partly successful mission. Authorized callers only.
func (s *MissionService) ForceFinalize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.ForceFinalize")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	if err := s.registry.RequireAuthorized(caller); err != nil {
		return nil, toStatus(err)
	}
	now := s.clock().UTC()

	split, err := eng.ForceFinalize(scope.Ctx, now)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(split)
}

// TopUp moves amount from the caller into the mission prize pool
func (s *MissionService) TopUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "MissionService.TopUp")
	defer scope.Finish()

	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	caller, err := getAddress(req, "caller")
	if err != nil {
		return nil, err
	}
	amount, err := getAmount(req, "amount")
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, toStatus(mission.ErrInvalidAmount)
	}
	now := s.clock().UTC()

	bank := s.registry.Bank()
	if err := bank.Transfer(scope.Ctx, caller, eng.ID(), amount); err != nil {
		return nil, toStatus(err)
	}
	if err := eng.TopUp(scope.Ctx, amount, now); err != nil {
		s.returnFunds(scope, eng.ID(), caller, amount)
		return nil, toStatus(err)
	}

	return toStruct(eng.Rollup(now))
}

func (s *MissionService) returnFunds(scope *common.Scope, from, to gethcommon.Address, amount *uint256.Int) {
	if err := s.registry.Bank().Transfer(scope.Ctx, from, to, amount); err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("failed to return %s to %s: %v", amount.Dec(), to.Hex(), err)
	}
}

// countRefunds records the refund outcome of a mission that just failed
func (s *MissionService) countRefunds(eng *mission.Engine) {
	_, refunded := eng.RefundedPlayers(0, 0)
	metrics.RefundsTotal.WithLabelValues("refunded").Add(float64(refunded))
	metrics.RefundsTotal.WithLabelValues("failed").Add(float64(len(eng.FailedRefunds())))
}
