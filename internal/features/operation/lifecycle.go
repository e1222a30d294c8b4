package operation

import (
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lifecycle transitions. Every mutation of an Operation's status goes through
// one of these; anything else asking for a transition gets *InvalidTransition
// and the operation stays untouched.
//
//	PENDING -> RUNNING -> {COMPLETED, FAILED, CANCELLED}
//	FAILED  -> PENDING (retry; counters reset, then a fresh run starts)

// Submit creates a new Operation in PENDING with zeroed counters.
func Submit(opType OperationType, binding Binding, payload []common_models.Row, payloadRows []int, cfg common_models.BatchConfig, createdBy, description string) *Operation {
	now := time.Now()
	op := &Operation{
		ID:           primitive.NewObjectID(),
		Type:         opType,
		DataType:     binding.DataType,
		Status:       StatusPending,
		Description:  description,
		CreatedBy:    createdBy,
		Config:       cfg,
		TotalRecords: len(payload),
		Payload:      payload,
		PayloadRows:  payloadRows,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	op.Recompute()
	return op
}

// Start moves PENDING -> RUNNING.
func Start(op *Operation) error {
	if op.Status != StatusPending {
		return &InvalidTransition{From: op.Status, Event: "start"}
	}
	now := time.Now()
	op.Status = StatusRunning
	op.StartedAt = &now
	op.CurrentStep = "starting"
	op.UpdatedAt = now
	return nil
}

// CompleteBatch applies one finished chunk's counters while RUNNING.
func CompleteBatch(op *Operation, successful, failed int) error {
	if op.Status != StatusRunning {
		return &InvalidTransition{From: op.Status, Event: "complete batch"}
	}
	op.ProcessedRecords += successful + failed
	op.SuccessfulRecords += successful
	op.FailedRecords += failed
	op.Recompute()
	op.CurrentStep = fmt.Sprintf("processed %d/%d", op.ProcessedRecords, op.TotalRecords)
	op.UpdatedAt = time.Now()
	return nil
}

// Finish moves RUNNING to COMPLETED or FAILED depending on whether any
// record failed.
func Finish(op *Operation) error {
	if op.Status != StatusRunning {
		return &InvalidTransition{From: op.Status, Event: "finish"}
	}
	now := time.Now()
	if op.FailedRecords > 0 {
		op.Status = StatusFailed
	} else {
		op.Status = StatusCompleted
	}
	op.CompletedAt = &now
	op.UpdatedAt = now
	op.CurrentStep = string(op.Status)
	return nil
}

// Fail forces RUNNING -> FAILED for loop-level faults.
func Fail(op *Operation, cause string) error {
	if op.Status != StatusRunning {
		return &InvalidTransition{From: op.Status, Event: "fail"}
	}
	now := time.Now()
	op.Status = StatusFailed
	op.CompletedAt = &now
	op.UpdatedAt = now
	op.CurrentStep = cause
	return nil
}

// Cancel moves RUNNING -> CANCELLED. Already-accrued counters are preserved;
// remaining records are simply never attempted.
func Cancel(op *Operation) error {
	if op.Status != StatusRunning {
		return &InvalidTransition{From: op.Status, Event: "cancel"}
	}
	now := time.Now()
	op.Status = StatusCancelled
	op.CompletedAt = &now
	op.UpdatedAt = now
	op.CurrentStep = "cancelled"
	return nil
}

// Retry re-arms a FAILED operation for a full re-run: counters reset to zero,
// identity and payload preserved, status back to PENDING so the processor
// drives it through RUNNING again.
func Retry(op *Operation) error {
	if op.Status != StatusFailed {
		return &InvalidTransition{From: op.Status, Event: "retry"}
	}
	op.Status = StatusPending
	op.ProcessedRecords = 0
	op.SuccessfulRecords = 0
	op.FailedRecords = 0
	op.Recompute()
	op.Errors = nil
	op.StartedAt = nil
	op.CompletedAt = nil
	op.CurrentStep = "retry queued"
	op.UpdatedAt = time.Now()
	return nil
}

// EnsureDeletable guards deletion: only terminal operations may be removed.
func EnsureDeletable(op *Operation) error {
	if !op.Status.Terminal() {
		return &InvalidTransition{From: op.Status, Event: "delete"}
	}
	return nil
}
