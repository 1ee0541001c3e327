// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package ledger

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func missionID(n byte) common.Address {
	return common.BytesToAddress([]byte{0xaa, n})
}

func TestTouch_OverwritesAndSequences(t *testing.T) {
	l := New(0, 0)

	a := l.Touch(missionID(1), "Enrolling", false, t0)
	b := l.Touch(missionID(2), "Enrolling", false, t0)
	c := l.Touch(missionID(1), "Arming", false, t0.Add(time.Hour))

	if a.Sequence != 1 || b.Sequence != 2 || c.Sequence != 3 {
		t.Errorf("sequences = %d,%d,%d, expected 1,2,3", a.Sequence, b.Sequence, c.Sequence)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", l.Len())
	}

	got, ok := l.Get(missionID(1))
	if !ok {
		t.Fatal("Get() ok = false, expected true")
	}
	if got.Status != "Arming" || got.Sequence != 3 {
		t.Errorf("Get() = %+v, expected Arming at seq 3", got)
	}
	if l.Sequence() != 3 {
		t.Errorf("Sequence() = %d, expected 3", l.Sequence())
	}
}

func TestChangesAfter_NeverRepeats(t *testing.T) {
	l := New(0, 0)
	for i := byte(1); i <= 5; i++ {
		l.Touch(missionID(i), "Enrolling", false, t0)
	}

	first := l.ChangesAfter(0)
	if len(first) != 5 {
		t.Fatalf("ChangesAfter(0) len = %d, expected 5", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i].Sequence <= first[i-1].Sequence {
			t.Fatalf("ChangesAfter(0) not ordered by sequence: %v", first)
		}
	}
	lastSeq := first[len(first)-1].Sequence

	if again := l.ChangesAfter(lastSeq); len(again) != 0 {
		t.Errorf("ChangesAfter(lastSeq) with no touches = %v, expected empty", again)
	}

	l.Touch(missionID(2), "Arming", false, t0.Add(time.Hour))
	l.Touch(missionID(6), "Pending", false, t0.Add(time.Hour))
	l.Touch(missionID(4), "Failed", true, t0.Add(time.Hour))

	next := l.ChangesAfter(lastSeq)
	if len(next) != 3 {
		t.Fatalf("ChangesAfter(lastSeq) len = %d, expected 3", len(next))
	}
	seen := make(map[uint64]bool)
	for _, e := range first {
		seen[e.Sequence] = true
	}
	wantIDs := []common.Address{missionID(2), missionID(6), missionID(4)}
	for i, e := range next {
		if seen[e.Sequence] {
			t.Errorf("sequence %d returned twice", e.Sequence)
		}
		if e.MissionID != wantIDs[i] {
			t.Errorf("ChangesAfter()[%d].MissionID = %s, expected %s", i, e.MissionID.Hex(), wantIDs[i].Hex())
		}
	}
}

func TestPurge_RemovesOnlyExpiredTerminal(t *testing.T) {
	l := New(10, 7*24*time.Hour)

	l.Touch(missionID(1), "Success", true, t0)
	l.Touch(missionID(2), "Active", false, t0)
	l.Touch(missionID(3), "Failed", true, t0.Add(6*24*time.Hour))
	l.Touch(missionID(4), "Failed", true, t0)

	removed := l.Purge(t0.Add(8 * 24 * time.Hour))
	if removed != 2 {
		t.Fatalf("Purge() = %d, expected 2", removed)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", l.Len())
	}
	for _, id := range []common.Address{missionID(1), missionID(4)} {
		if _, ok := l.Get(id); ok {
			t.Errorf("Get(%s) still present after purge", id.Hex())
		}
	}
	for _, id := range []common.Address{missionID(2), missionID(3)} {
		e, ok := l.Get(id)
		if !ok {
			t.Errorf("Get(%s) missing after purge", id.Hex())
			continue
		}
		if e.MissionID != id {
			t.Errorf("index points at %s, expected %s", e.MissionID.Hex(), id.Hex())
		}
	}
}

func TestPurge_BoundedByBatch(t *testing.T) {
	l := New(2, time.Hour)
	for i := byte(1); i <= 5; i++ {
		l.Touch(missionID(i), "Success", true, t0)
	}
	later := t0.Add(2 * time.Hour)

	if got := l.Purge(later); got != 2 {
		t.Fatalf("first Purge() = %d, expected 2", got)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, expected 3", l.Len())
	}

	total := 2
	for i := 0; i < 5 && l.Len() > 0; i++ {
		total += l.Purge(later)
	}
	if total != 5 || l.Len() != 0 {
		t.Errorf("purged %d, Len() = %d, expected 5 and 0", total, l.Len())
	}
}

func TestPurge_CursorRotates(t *testing.T) {
	l := New(1, time.Hour)
	l.Touch(missionID(1), "Active", false, t0)
	l.Touch(missionID(2), "Active", false, t0)
	l.Touch(missionID(3), "Success", true, t0)
	later := t0.Add(2 * time.Hour)

	if got := l.Purge(later); got != 0 {
		t.Errorf("Purge() #1 = %d, expected 0", got)
	}
	if got := l.Purge(later); got != 0 {
		t.Errorf("Purge() #2 = %d, expected 0", got)
	}
	if got := l.Purge(later); got != 1 {
		t.Errorf("Purge() #3 = %d, expected 1", got)
	}
	if _, ok := l.Get(missionID(3)); ok {
		t.Error("terminal entry still present after cursor reached it")
	}
}

func TestTouch_AfterPurgeReappends(t *testing.T) {
	l := New(10, time.Hour)
	l.Touch(missionID(1), "Failed", true, t0)
	l.Purge(t0.Add(2 * time.Hour))

	e := l.Touch(missionID(1), "Failed", true, t0.Add(3*time.Hour))
	if e.Sequence != 2 {
		t.Errorf("Touch() seq = %d, expected 2", e.Sequence)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", l.Len())
	}
}

func TestSetBatchSize(t *testing.T) {
	l := New(0, 0)
	l.SetBatchSize(25)
	if l.BatchSize() != 25 {
		t.Errorf("BatchSize() = %d, expected 25", l.BatchSize())
	}
	l.SetBatchSize(0)
	if l.BatchSize() != 25 {
		t.Errorf("BatchSize() after invalid update = %d, expected 25", l.BatchSize())
	}
}
