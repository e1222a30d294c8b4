package operation

import (
	"context"
	"testing"
	"time"
)

func TestTrackerServesLiveRuntime(t *testing.T) {
	repo := newFakeRepository()
	reg := newRegistry()
	tracker := NewProgressTracker(reg, repo)

	op := newTestOperation(t, 100)
	Start(op)
	CompleteBatch(op, 48, 2)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	snap, err := tracker.Snapshot(context.Background(), op.ID.Hex())
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if snap.Status != StatusRunning {
		t.Errorf("Status = %s, want running", snap.Status)
	}
	if snap.ProcessedRecords != 50 || snap.SuccessfulRecords != 48 || snap.FailedRecords != 2 {
		t.Errorf("counters = %d/%d/%d, want 50/48/2", snap.ProcessedRecords, snap.SuccessfulRecords, snap.FailedRecords)
	}
	if snap.Progress != 50 {
		t.Errorf("Progress = %f, want 50", snap.Progress)
	}
	if snap.EstimatedRemainingMs == nil {
		t.Error("expected an ETA for a running operation with progress")
	}
}

func TestTrackerFallsBackToStore(t *testing.T) {
	repo := newFakeRepository()
	reg := newRegistry()
	tracker := NewProgressTracker(reg, repo)

	op := newTestOperation(t, 10)
	Start(op)
	CompleteBatch(op, 10, 0)
	Finish(op)
	repo.Create(context.Background(), op)

	snap, err := tracker.Snapshot(context.Background(), op.ID.Hex())
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", snap.Status)
	}
	if snap.EstimatedRemainingMs != nil {
		t.Error("terminal operation must not carry an ETA")
	}
}

func TestTrackerUnknownOperation(t *testing.T) {
	repo := newFakeRepository()
	tracker := NewProgressTracker(newRegistry(), repo)

	if _, err := tracker.Snapshot(context.Background(), "missing"); err == nil {
		t.Error("expected an error for unknown operation")
	}
}

func TestSnapshotETAUndefinedBeforeFirstRecord(t *testing.T) {
	op := newTestOperation(t, 100)
	Start(op)

	snap := snapshotOf(op)
	if snap.EstimatedRemainingMs != nil {
		t.Error("ETA must be undefined before the first record is processed")
	}
}

func TestSnapshotETAExtrapolation(t *testing.T) {
	op := newTestOperation(t, 100)
	Start(op)
	started := time.Now().Add(-10 * time.Second)
	op.StartedAt = &started
	CompleteBatch(op, 50, 0)

	snap := snapshotOf(op)
	if snap.EstimatedRemainingMs == nil {
		t.Fatal("expected an ETA")
	}

	// 10s for 50 records leaves roughly 10s for the remaining 50
	got := *snap.EstimatedRemainingMs
	if got < 9000 || got > 11000 {
		t.Errorf("EstimatedRemainingMs = %d, want about 10000", got)
	}
}
