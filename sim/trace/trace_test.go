package trace

import (
	"testing"

	"github.com/distsim/distsim/sim"
)

func TestIsValidLevel(t *testing.T) {
	for _, l := range []string{"", "none", "rollback", "gvt"} {
		if !IsValidLevel(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	if IsValidLevel("bogus") {
		t.Error("expected \"bogus\" to be invalid")
	}
}

func TestTraceLevelNoneDropsRecords(t *testing.T) {
	tr := New(LevelNone)
	tr.RecordRollback(RollbackRecord{LP: sim.Sid(1), StragglerTime: 5})
	tr.RecordGVT(GVTRecord{Value: 10})
	if len(tr.Rollbacks) != 0 || len(tr.Sweeps) != 0 {
		t.Error("LevelNone trace should record nothing")
	}
}

func TestTraceLevelRollbackRecordsOnlyRollbacks(t *testing.T) {
	tr := New(LevelRollback)
	tr.RecordRollback(RollbackRecord{LP: sim.Sid(2), StragglerTime: 3})
	tr.RecordGVT(GVTRecord{Value: 10})
	if len(tr.Rollbacks) != 1 {
		t.Fatalf("expected 1 rollback record, got %d", len(tr.Rollbacks))
	}
	if len(tr.Sweeps) != 0 {
		t.Error("LevelRollback trace should not record GVT sweeps")
	}
}

func TestTraceLevelGVTRecordsBoth(t *testing.T) {
	tr := New(LevelGVT)
	tr.RecordRollback(RollbackRecord{LP: sim.Sid(2), StragglerTime: 3})
	tr.RecordGVT(GVTRecord{Value: 10})
	if len(tr.Rollbacks) != 1 || len(tr.Sweeps) != 1 {
		t.Error("LevelGVT trace should record both kinds")
	}
}

func TestNilTraceIsSafe(t *testing.T) {
	var tr *Trace
	tr.RecordRollback(RollbackRecord{})
	tr.RecordGVT(GVTRecord{})
}
