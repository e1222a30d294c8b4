package operation

import (
	"context"
	"time"
)

// ProgressTracker projects a consistent snapshot of an operation's counters
// for polling clients. It never blocks the processor: live operations are
// copied under the per-operation lock, terminal ones come from the store.
type ProgressTracker struct {
	reg  *registry
	repo Repository
}

func NewProgressTracker(reg *registry, repo Repository) *ProgressTracker {
	return &ProgressTracker{reg: reg, repo: repo}
}

func (t *ProgressTracker) Snapshot(ctx context.Context, operationID string) (*ProgressSnapshot, error) {
	if rt, ok := t.reg.get(operationID); ok {
		cp := rt.snapshot()
		return snapshotOf(&cp), nil
	}

	op, err := t.repo.Get(ctx, operationID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(op), nil
}

func snapshotOf(op *Operation) *ProgressSnapshot {
	snap := &ProgressSnapshot{
		OperationID:       op.ID.Hex(),
		Status:            op.Status,
		TotalRecords:      op.TotalRecords,
		ProcessedRecords:  op.ProcessedRecords,
		SuccessfulRecords: op.SuccessfulRecords,
		FailedRecords:     op.FailedRecords,
		Progress:          op.Progress,
		CurrentStep:       op.CurrentStep,
		StartedAt:         op.StartedAt,
		CompletedAt:       op.CompletedAt,
	}

	// Linear extrapolation; undefined until the first record lands
	if op.Status == StatusRunning && op.ProcessedRecords > 0 && op.StartedAt != nil {
		elapsed := time.Since(*op.StartedAt)
		remaining := int64(float64(elapsed.Milliseconds()) / float64(op.ProcessedRecords) * float64(op.TotalRecords-op.ProcessedRecords))
		snap.EstimatedRemainingMs = &remaining
	}

	return snap
}
