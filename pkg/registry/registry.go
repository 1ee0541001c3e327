// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AccelByte/extend-mission-factory/pkg/ledger"
	"github.com/AccelByte/extend-mission-factory/pkg/limiter"
	"github.com/AccelByte/extend-mission-factory/pkg/metrics"
	"github.com/AccelByte/extend-mission-factory/pkg/mission"
	"github.com/AccelByte/extend-mission-factory/pkg/settlement"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Bank is the value store missions and the factory account settle through.
type Bank interface {
	mission.Bank
	Balance(ctx context.Context, addr common.Address) (*uint256.Int, error)
}

// Mirror receives a copy of every published mission snapshot and of the
// registry counters. It is optional.
type Mirror interface {
	SaveMission(ctx context.Context, snap mission.Snapshot) error
	SaveStats(ctx context.Context, stats Stats) error
}

// Config holds the collaborators of a Registry.
type Config struct {
	Owner      common.Address
	Factory    common.Address
	Authorized []common.Address
	Limiter    *limiter.Limiter
	Ledger     *ledger.Ledger
	Bank       Bank
	Mirror     Mirror
	Detector   mission.ContractDetector
	Policies   *settlement.Registry
}

// Stats is the registry-wide summary.
type Stats struct {
	Missions       int                     `json:"missions"`
	SuccessCount   int                     `json:"successCount"`
	FailureCount   int                     `json:"failureCount"`
	OwnerEarned    *uint256.Int            `json:"ownerEarned"`
	Reserves       map[string]*uint256.Int `json:"reserves"`
	LedgerEntries  int                     `json:"ledgerEntries"`
	LedgerSequence uint64                  `json:"ledgerSequence"`
}

// Registry owns the set of missions, their last published status, the
// per-type reserve pools and the authorization state.
//
// The registry never holds mu while calling into a mission engine; engines
// call back into the registry while holding their own lock.
type Registry struct {
	mu sync.RWMutex

	owner      common.Address
	authorized map[common.Address]bool
	pending    *ownerProposal

	factory common.Address
	nonce   uint64

	missions        []*handle
	byID            map[common.Address]*handle
	userMissions    map[common.Address][]common.Address
	lastUserMission map[common.Address]time.Time

	reserves     map[mission.Type]*uint256.Int
	ownerEarned  *uint256.Int
	successCount int
	failureCount int

	limiter  *limiter.Limiter
	ledger   *ledger.Ledger
	bank     Bank
	mirror   Mirror
	detector mission.ContractDetector
	policies *settlement.Registry
}

// New creates a registry.
func New(cfg Config) (*Registry, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("owner: %w", ErrZeroAddress)
	}
	if cfg.Factory == (common.Address{}) {
		return nil, fmt.Errorf("factory: %w", ErrZeroAddress)
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("registry needs a bank")
	}
	if cfg.Limiter == nil {
		cfg.Limiter = limiter.New(nil, 0, 0)
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.New(0, 0)
	}
	if cfg.Policies == nil {
		cfg.Policies = mission.DefaultPolicies()
	}

	r := &Registry{
		owner:           cfg.Owner,
		authorized:      make(map[common.Address]bool),
		factory:         cfg.Factory,
		byID:            make(map[common.Address]*handle),
		userMissions:    make(map[common.Address][]common.Address),
		lastUserMission: make(map[common.Address]time.Time),
		reserves:        make(map[mission.Type]*uint256.Int),
		ownerEarned:     new(uint256.Int),
		limiter:         cfg.Limiter,
		ledger:          cfg.Ledger,
		bank:            cfg.Bank,
		mirror:          cfg.Mirror,
		detector:        cfg.Detector,
		policies:        cfg.Policies,
	}
	for _, a := range cfg.Authorized {
		r.authorized[a] = true
	}
	for _, t := range mission.AllTypes() {
		r.reserves[t] = new(uint256.Int)
	}
	return r, nil
}

// CreateMission validates p and creates a mission in Pending state. With
// FundFromReserve set, a quarter of the type's reserve pool seeds the prize
// pool.
func (r *Registry) CreateMission(ctx context.Context, caller common.Address, p mission.Params, now time.Time) (common.Address, error) {
	if err := ValidateParams(p); err != nil {
		return common.Address{}, err
	}

	r.mu.Lock()

	if p.Type == mission.TypeUserMission {
		if caller != p.Creator {
			r.mu.Unlock()
			return common.Address{}, ErrNotCreator
		}
		if last, ok := r.lastUserMission[p.Creator]; ok && now.Sub(last) < UserMissionGap {
			r.mu.Unlock()
			return common.Address{}, fmt.Errorf("%w: next allowed at %s", ErrUserMissionTooSoon, last.Add(UserMissionGap).UTC().Format(time.RFC3339))
		}
	} else if !r.isAuthorizedLocked(caller) {
		r.mu.Unlock()
		return common.Address{}, ErrNotAuthorized
	}

	id := crypto.CreateAddress(r.factory, r.nonce)

	seed := new(uint256.Int)
	if p.FundFromReserve {
		seed.Div(r.reserves[p.Type], uint256.NewInt(4))
	}
	if !seed.IsZero() {
		if err := r.bank.Transfer(ctx, r.factory, id, seed); err != nil {
			r.mu.Unlock()
			return common.Address{}, fmt.Errorf("failed to fund mission from reserve: %w", err)
		}
		r.reserves[p.Type].Sub(r.reserves[p.Type], seed)
	}
	r.nonce++

	data := mission.NewData(id, p, seed, now)
	h := &handle{
		reg:          r,
		id:           id,
		typ:          p.Type,
		missionStart: p.MissionStart,
		missionEnd:   p.MissionEnd,
		status:       mission.StatusPending,
	}
	opts := []mission.Option{mission.WithPolicies(r.policies)}
	if r.detector != nil {
		opts = append(opts, mission.WithContractDetector(r.detector))
	}
	h.engine = mission.New(data, h, r.bank, opts...)

	r.missions = append(r.missions, h)
	r.byID[id] = h
	if p.Type == mission.TypeUserMission {
		r.lastUserMission[p.Creator] = now
	}
	stats := r.statsLocked()
	r.mu.Unlock()

	r.ledger.Touch(id, mission.StatusPending.String(), false, now)
	metrics.MissionsCreatedTotal.WithLabelValues(p.Type.String()).Inc()
	metrics.LedgerEntries.Set(float64(r.ledger.Len()))
	r.mirrorMission(ctx, mission.Snapshot{Data: data, Status: mission.StatusPending}, stats)

	logrus.Infof("created %s mission %s (%q), seed %s", p.Type, id.Hex(), p.Name, seed.Dec())
	return id, nil
}

// Mission returns the engine of id.
func (r *Registry) Mission(id common.Address) (*mission.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMission, id.Hex())
	}
	return h.engine, nil
}

// LastStatus returns the last status mission id published.
func (r *Registry) LastStatus(id common.Address) (mission.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMission, id.Hex())
	}
	return h.status, nil
}

// ReservePool returns the reserve pool of t.
func (r *Registry) ReservePool(t mission.Type) *uint256.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if pool := r.reserves[t]; pool != nil {
		return pool.Clone()
	}
	return new(uint256.Int)
}

// Stats returns the registry summary.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked()
}

// Limiter exposes the enrollment limiter for allowance queries.
func (r *Registry) Limiter() *limiter.Limiter {
	return r.limiter
}

// Factory returns the factory account that holds reserve pools.
func (r *Registry) Factory() common.Address {
	return r.factory
}

// Bank returns the value store missions settle through.
func (r *Registry) Bank() Bank {
	return r.bank
}

func (r *Registry) statsLocked() Stats {
	s := Stats{
		Missions:       len(r.missions),
		SuccessCount:   r.successCount,
		FailureCount:   r.failureCount,
		OwnerEarned:    r.ownerEarned.Clone(),
		Reserves:       make(map[string]*uint256.Int, len(r.reserves)),
		LedgerEntries:  r.ledger.Len(),
		LedgerSequence: r.ledger.Sequence(),
	}
	for t, pool := range r.reserves {
		s.Reserves[t.String()] = pool.Clone()
	}
	return s
}

func (r *Registry) mirrorMission(ctx context.Context, snap mission.Snapshot, stats Stats) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.SaveMission(ctx, snap); err != nil {
		logrus.Warnf("failed to mirror mission %s: %v", snap.ID.Hex(), err)
	}
	if err := r.mirror.SaveStats(ctx, stats); err != nil {
		logrus.Warnf("failed to mirror registry stats: %v", err)
	}
}

// handle is the Callback a mission engine holds. Fields below engine are
// guarded by reg.mu.
type handle struct {
	reg          *Registry
	engine       *mission.Engine
	id           common.Address
	typ          mission.Type
	missionStart time.Time
	missionEnd   time.Time

	status  mission.Status
	counted bool
}

func (h *handle) PublishStatus(ctx context.Context, st mission.Status, now time.Time, snap mission.Data) {
	r := h.reg

	r.mu.Lock()
	prev := h.status
	h.status = st
	if st.IsTerminal() && !h.counted {
		h.counted = true
		if st == mission.StatusSuccess {
			r.successCount++
		} else {
			r.failureCount++
		}
	}
	r.mu.Unlock()

	if !mission.CanTransition(prev, st) {
		logrus.Warnf("mission %s published %s after %s", h.id.Hex(), st, prev)
	}

	r.ledger.Touch(h.id, st.String(), st.IsTerminal(), now)
	if st.IsTerminal() {
		r.ledger.Purge(now)
	}
	metrics.StatusPublishedTotal.WithLabelValues(st.String()).Inc()
	metrics.LedgerEntries.Set(float64(r.ledger.Len()))

	r.mirrorMission(ctx, mission.Snapshot{Data: snap, Status: st}, r.Stats())
}

func (h *handle) RegisterFunds(_ context.Context, t mission.Type, amount *uint256.Int) error {
	r := h.reg

	r.mu.Lock()
	defer r.mu.Unlock()

	if !h.status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrMissionNotFinished, h.id.Hex(), h.status)
	}

	pool := r.reserves[t]
	if pool == nil {
		pool = new(uint256.Int)
		r.reserves[t] = pool
	}
	pool.Add(pool, amount)
	r.ownerEarned.Add(r.ownerEarned, new(uint256.Int).Div(amount, uint256.NewInt(3)))

	metrics.ReservePool.WithLabelValues(t.String()).Set(pool.Float64())
	logrus.Infof("mission %s returned %s to the %s reserve pool", h.id.Hex(), amount.Dec(), t)
	return nil
}

func (h *handle) ReserveEnrollment(ctx context.Context, user common.Address, now time.Time) (limiter.Result, error) {
	res, err := h.reg.limiter.Reserve(ctx, user, now)
	if err != nil || !res.Allowed {
		return res, err
	}

	h.reg.mu.Lock()
	h.reg.userMissions[user] = append(h.reg.userMissions[user], h.id)
	h.reg.mu.Unlock()
	return res, nil
}

func (h *handle) UndoEnrollment(ctx context.Context, user common.Address, from, to time.Time) error {
	_, err := h.reg.limiter.Undo(ctx, user, from, to)
	return err
}

func (h *handle) Owner() common.Address {
	h.reg.mu.RLock()
	defer h.reg.mu.RUnlock()
	return h.reg.owner
}

func (h *handle) Treasury() common.Address {
	return h.reg.factory
}
