// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPurgeBatchSize = 10
	DefaultRetention      = 7 * 24 * time.Hour
)

// Entry records the last touch of one mission.
type Entry struct {
	MissionID common.Address `json:"missionId"`
	Timestamp time.Time      `json:"timestamp"`
	Sequence  uint64         `json:"seq"`
	Status    string         `json:"status"`
	Terminal  bool           `json:"terminal"`
}

// Ledger is the change feed pollers use instead of event subscriptions.
//
// Entries live in a dense slice with an id -> index+1 map so that a single
// entry is removed in O(1) by swapping it with the last one. Purge examines
// at most batchSize entries per call starting from a rotating cursor.
type Ledger struct {
	mu        sync.Mutex
	entries   []Entry
	index     map[common.Address]int
	seq       uint64
	cursor    int
	batchSize int
	retention time.Duration
}

// New creates a ledger. Non-positive arguments fall back to the defaults.
func New(batchSize int, retention time.Duration) *Ledger {
	if batchSize <= 0 {
		batchSize = DefaultPurgeBatchSize
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Ledger{
		index:     make(map[common.Address]int),
		batchSize: batchSize,
		retention: retention,
	}
}

// Touch overwrites the entry of id, or appends one, under a fresh sequence.
func (l *Ledger) Touch(id common.Address, status string, terminal bool, now time.Time) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e := Entry{
		MissionID: id,
		Timestamp: now,
		Sequence:  l.seq,
		Status:    status,
		Terminal:  terminal,
	}

	if pos := l.index[id]; pos > 0 {
		l.entries[pos-1] = e
	} else {
		l.entries = append(l.entries, e)
		l.index[id] = len(l.entries)
	}
	return e
}

// ChangesAfter returns every entry with a sequence greater than lastSeq,
// ordered by sequence.
func (l *Ledger) ChangesAfter(lastSeq uint64) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.entries {
		if e.Sequence > lastSeq {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// Purge removes expired terminal entries, examining at most one batch.
// It returns the number of entries removed.
func (l *Ledger) Purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for examined := 0; examined < l.batchSize && len(l.entries) > 0; examined++ {
		if l.cursor >= len(l.entries) {
			l.cursor = 0
		}

		e := l.entries[l.cursor]
		if e.Terminal && now.Sub(e.Timestamp) > l.retention {
			l.removeAt(l.cursor)
			removed++
			// the swapped-in entry now sits at the cursor and is examined next
			continue
		}
		l.cursor++
	}

	if removed > 0 {
		logrus.Debugf("ledger purge removed %d entries, %d remain", removed, len(l.entries))
	}
	return removed
}

func (l *Ledger) removeAt(i int) {
	last := len(l.entries) - 1
	delete(l.index, l.entries[i].MissionID)
	if i != last {
		l.entries[i] = l.entries[last]
		l.index[l.entries[i].MissionID] = i + 1
	}
	l.entries[last] = Entry{}
	l.entries = l.entries[:last]
}

// Get returns the entry of id.
func (l *Ledger) Get(id common.Address) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.index[id]
	if pos == 0 {
		return Entry{}, false
	}
	return l.entries[pos-1], true
}

// Len returns the number of live entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sequence returns the last assigned sequence number.
func (l *Ledger) Sequence() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// SetBatchSize changes how many entries a purge pass examines.
func (l *Ledger) SetBatchSize(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batchSize = n
}

// BatchSize returns how many entries a purge pass examines.
func (l *Ledger) BatchSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.batchSize
}

// Retention returns how long terminal entries are kept.
func (l *Ledger) Retention() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retention
}
