// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package registry

import (
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/ledger"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// ScanHorizon stops listing scans at the first mission that started
	// earlier than this.
	ScanHorizon = 60 * 24 * time.Hour
	// EndedRetention hides ended missions that ended earlier than this.
	EndedRetention = 30 * 24 * time.Hour
)

// UserMission is one mission a user joined, with its live status.
type UserMission struct {
	MissionID common.Address       `json:"missionId"`
	Status    mission.Status       `json:"status"`
	Record    mission.PlayerRecord `json:"record"`
}

// handles copies the mission list so engines are called without mu.
func (r *Registry) handles() []*handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*handle, len(r.missions))
	copy(out, r.missions)
	return out
}

// Engines returns every mission engine in creation order.
func (r *Registry) Engines() []*mission.Engine {
	hs := r.handles()
	out := make([]*mission.Engine, len(hs))
	for i, h := range hs {
		out[i] = h.engine
	}
	return out
}

// MissionsByStatus returns snapshots of every mission currently in st.
func (r *Registry) MissionsByStatus(now time.Time, st mission.Status) []mission.Snapshot {
	out := []mission.Snapshot{}
	for _, h := range r.handles() {
		if h.engine.Status(now) == st {
			out = append(out, h.engine.Snapshot(now))
		}
	}
	return out
}

// MissionsNotEnded returns missions that are neither finished nor awaiting
// finalization, newest first.
func (r *Registry) MissionsNotEnded(now time.Time) []mission.Snapshot {
	out := []mission.Snapshot{}
	r.scanRecent(now, func(h *handle) {
		if st := h.engine.Status(now); !ended(st) {
			out = append(out, h.engine.Snapshot(now))
		}
	})
	return out
}

// MissionsEnded returns one page of recently ended missions, newest first,
// and the number of matches.
func (r *Registry) MissionsEnded(now time.Time, offset, limit int) ([]mission.Snapshot, int) {
	var matched []*handle
	r.scanRecent(now, func(h *handle) {
		if now.Sub(h.missionEnd) > EndedRetention {
			return
		}
		if ended(h.engine.Status(now)) {
			matched = append(matched, h)
		}
	})

	if offset < 0 {
		offset = 0
	}
	out := []mission.Snapshot{}
	for i := offset; i < len(matched) && (limit <= 0 || len(out) < limit); i++ {
		out = append(out, matched[i].engine.Snapshot(now))
	}
	return out, len(matched)
}

// scanRecent visits missions newest first and stops at the first one that
// started before the scan horizon. Insertion order is creation order, so
// everything after it is older still.
func (r *Registry) scanRecent(now time.Time, visit func(h *handle)) {
	hs := r.handles()
	for i := len(hs) - 1; i >= 0; i-- {
		if now.Sub(hs[i].missionStart) > ScanHorizon {
			break
		}
		visit(hs[i])
	}
}

// UserMissions lists the missions user joined with their live status.
func (r *Registry) UserMissions(now time.Time, user common.Address) []UserMission {
	r.mu.RLock()
	ids := append([]common.Address(nil), r.userMissions[user]...)
	hs := make([]*handle, 0, len(ids))
	for _, id := range ids {
		if h, ok := r.byID[id]; ok {
			hs = append(hs, h)
		}
	}
	r.mu.RUnlock()

	out := make([]UserMission, 0, len(hs))
	for _, h := range hs {
		rec, _ := h.engine.Player(user)
		out = append(out, UserMission{
			MissionID: h.id,
			Status:    h.engine.Status(now),
			Record:    rec,
		})
	}
	return out
}

// ChangesAfter returns the change feed after lastSeq.
func (r *Registry) ChangesAfter(lastSeq uint64) []ledger.Entry {
	return r.ledger.ChangesAfter(lastSeq)
}

func ended(st mission.Status) bool {
	return st.IsTerminal() || st == mission.StatusPartlySuccess
}
