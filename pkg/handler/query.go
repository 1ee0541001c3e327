package handler

import (
	"context"
	"errors"

	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/registry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GetMission returns the full snapshot of one mission. Missions unknown to
// the registry are looked up in the archive when one is configured.
func (s *MissionService) GetMission(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := getAddress(req, "missionId")
	if err != nil {
		return nil, err
	}
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}

	eng, err := s.registry.Mission(id)
	if errors.Is(err, registry.ErrUnknownMission) && s.archive != nil {
		snap, found, aerr := s.archive.LoadMission(ctx, id)
		if aerr != nil {
			return nil, toStatus(aerr)
		}
		if found {
			return toStruct(snap)
		}
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(eng.Snapshot(now))
}

// GetRollup returns the reconciliation summary of one mission
func (s *MissionService) GetRollup(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}
	return toStruct(eng.Rollup(now))
}

func (s *MissionService) ListPlayers(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	return wrap("players", eng.Players())
}

func (s *MissionService) ListWinners(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	return wrap("players", eng.Winners())
}

func (s *MissionService) ListFailedRefunds(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	return wrap("players", eng.FailedRefunds())
}

// ListRefundedPlayers returns one page of refunded players
func (s *MissionService) ListRefundedPlayers(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eng, err := s.engine(req)
	if err != nil {
		return nil, err
	}
	offset, limit, err := pagination(req)
	if err != nil {
		return nil, err
	}

	players, total := eng.RefundedPlayers(offset, limit)
	return toStruct(map[string]any{"players": players, "total": total})
}

// ListMissionsByStatus returns every mission currently in the given status
func (s *MissionService) ListMissionsByStatus(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	st, err := mission.ParseStatus(getString(req, "status"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}
	return wrap("missions", s.registry.MissionsByStatus(now, st))
}

func (s *MissionService) ListMissionsNotEnded(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}
	return wrap("missions", s.registry.MissionsNotEnded(now))
}

// ListMissionsEnded returns one page of recently ended missions
func (s *MissionService) ListMissionsEnded(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}
	offset, limit, err := pagination(req)
	if err != nil {
		return nil, err
	}

	missions, total := s.registry.MissionsEnded(now, offset, limit)
	return toStruct(map[string]any{"missions": missions, "total": total})
}

// ListUserMissions returns every mission a user joined with its status
func (s *MissionService) ListUserMissions(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := getAddress(req, "user")
	if err != nil {
		return nil, err
	}
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}
	return wrap("missions", s.registry.UserMissions(now, user))
}

// GetChangesAfter returns the change feed after lastSeq
func (s *MissionService) GetChangesAfter(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	lastSeq, err := getInt(req, "lastSeq", 0)
	if err != nil {
		return nil, err
	}
	if lastSeq < 0 {
		return nil, status.Error(codes.InvalidArgument, "lastSeq must not be negative")
	}
	return wrap("changes", s.registry.ChangesAfter(uint64(lastSeq)))
}

// GetEnrollmentAllowance reports whether a user may enroll now and how long
// until each window frees a slot
func (s *MissionService) GetEnrollmentAllowance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := getAddress(req, "user")
	if err != nil {
		return nil, err
	}
	now, err := s.queryTime(req)
	if err != nil {
		return nil, err
	}

	lim := s.registry.Limiter()
	res, err := lim.Check(ctx, user, now)
	if err != nil {
		return nil, toStatus(err)
	}
	weekly, err := lim.UntilWeeklySlot(ctx, user, now)
	if err != nil {
		return nil, toStatus(err)
	}
	monthly, err := lim.UntilMonthlySlot(ctx, user, now)
	if err != nil {
		return nil, toStatus(err)
	}

	return fields(map[string]any{
		"allowed":             res.Allowed,
		"breach":              res.Breach.String(),
		"retryInSeconds":      int64(res.RetryIn.Seconds()),
		"untilWeeklySeconds":  int64(weekly.Seconds()),
		"untilMonthlySeconds": int64(monthly.Seconds()),
	})
}

func (s *MissionService) GetStats(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.registry.Stats())
}

// GetReservePool returns the reserve pool of one mission type
func (s *MissionService) GetReservePool(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	t, err := mission.ParseType(getString(req, "type"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return fields(map[string]any{
		"type":   t.String(),
		"amount": s.registry.ReservePool(t).Dec(),
	})
}

func pagination(req *structpb.Struct) (int, int, error) {
	offset, err := getInt(req, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err := getInt(req, "limit", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 || limit < 0 {
		return 0, 0, status.Error(codes.InvalidArgument, "offset and limit must not be negative")
	}
	return int(offset), int(limit), nil
}
