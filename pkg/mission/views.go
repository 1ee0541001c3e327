// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mission

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ID returns the mission identity.
func (e *Engine) ID() common.Address {
	return e.data.ID
}

// Type returns the mission type.
func (e *Engine) Type() Type {
	return e.data.Type
}

// Status derives the current status.
func (e *Engine) Status(now time.Time) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DeriveStatus(now, &e.data)
}

// Snapshot returns a deep copy of the mission with its derived status.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{Data: e.data.Clone(), Status: DeriveStatus(now, &e.data)}
}

// Rollup returns the reconciliation summary.
func (e *Engine) Rollup(now time.Time) Rollup {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := Rollup{
		Status:       DeriveStatus(now, &e.data),
		RoundCount:   e.data.RoundCount,
		CroCurrent:   amountOrZero(e.data.CroCurrent),
		PlayersCount: len(e.data.Players),
	}
	for _, p := range e.data.Players {
		if p.HasWon() {
			r.WinnersCount++
		}
		if p.Refunded {
			r.RefundedCount++
		}
	}
	return r
}

// Players returns every participation record in enrollment order.
func (e *Engine) Players() []PlayerRecord {
	return e.filter(func(PlayerRecord) bool { return true })
}

// Winners returns the players who claimed a round.
func (e *Engine) Winners() []PlayerRecord {
	return e.filter(PlayerRecord.HasWon)
}

// FailedRefunds returns the players still owed their enrollment amount.
func (e *Engine) FailedRefunds() []PlayerRecord {
	return e.filter(func(p PlayerRecord) bool { return p.RefundFailed && !p.Refunded })
}

// RefundedPlayers returns one page of refunded players and the total count.
func (e *Engine) RefundedPlayers(offset, limit int) ([]PlayerRecord, int) {
	refunded := e.filter(func(p PlayerRecord) bool { return p.Refunded })
	return page(refunded, offset, limit), len(refunded)
}

// Player returns the record of addr.
func (e *Engine) Player(addr common.Address) (PlayerRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.index[addr]
	if !ok {
		return PlayerRecord{}, false
	}
	p := e.data.Players[idx]
	p.Won = amountOrZero(p.Won)
	return p, true
}

func (e *Engine) filter(keep func(PlayerRecord) bool) []PlayerRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []PlayerRecord{}
	for _, p := range e.data.Players {
		if keep(p) {
			p.Won = amountOrZero(p.Won)
			out = append(out, p)
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
