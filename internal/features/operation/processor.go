package operation

import (
	"context"
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"

	"go.uber.org/zap"
)

// WriteFunc is the per-record write capability bound to an operation type.
type WriteFunc func(ctx context.Context, row common_models.Row) error

// TerminalSink is notified once an operation reaches a terminal state.
type TerminalSink interface {
	OperationFinished(ctx context.Context, op *Operation)
}

// BatchProcessor drives one operation from PENDING through its batches to a
// terminal state. One sequential worker per operation; concurrency across
// different operations is up to the caller.
type BatchProcessor struct {
	reg          *registry
	repo         Repository
	collector    *ErrorCollector
	sink         TerminalSink
	logger       *zap.Logger
	writeTimeout time.Duration
}

func NewBatchProcessor(reg *registry, repo Repository, collector *ErrorCollector, sink TerminalSink, logger *zap.Logger, writeTimeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		reg:          reg,
		repo:         repo,
		collector:    collector,
		sink:         sink,
		logger:       logger,
		writeTimeout: writeTimeout,
	}
}

// Run executes the operation to completion. Intended to be called on its own
// goroutine; all status changes go through the lifecycle under the runtime
// lock so pollers never see a torn update.
func (p *BatchProcessor) Run(rt *runtime, write WriteFunc) {
	opID := rt.snapshot().ID.Hex()

	// A fault in the loop itself (not a single record) terminates the
	// operation as FAILED with one synthetic execution error.
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("batch processor fault",
				zap.String("operation_id", opID),
				zap.Any("panic", rec))
			p.collector.Record(opID, ExecutionError{
				Row:     0,
				Message: fmt.Sprintf("system fault: %v", rec),
				Phase:   PhaseExecution,
			})
			rt.mu.Lock()
			if !rt.op.Status.Terminal() {
				Fail(rt.op, "system fault")
				rt.op.Errors = p.collector.List(opID, ErrorFilter{})
			}
			cp := *rt.op
			rt.mu.Unlock()
			p.finish(&cp)
		}
	}()

	rt.mu.Lock()
	if err := Start(rt.op); err != nil {
		rt.mu.Unlock()
		p.logger.Warn("refusing to start operation", zap.String("operation_id", opID), zap.Error(err))
		return
	}
	batchSize := rt.op.Config.BatchSize
	payload := rt.op.Payload
	payloadRows := rt.op.PayloadRows
	cp := *rt.op
	rt.mu.Unlock()

	p.persist(&cp)
	p.logger.Info("operation started",
		zap.String("operation_id", opID),
		zap.String("type", string(cp.Type)),
		zap.Int("total_records", cp.TotalRecords))

	total := len(payload)
	for start := 0; start < total; start += batchSize {
		// Cooperative cancellation, checked only at batch boundaries:
		// an in-flight record write is allowed to finish first.
		if rt.cancelled.Load() {
			rt.mu.Lock()
			Cancel(rt.op)
			rt.op.Errors = p.collector.List(opID, ErrorFilter{})
			cp := *rt.op
			rt.mu.Unlock()
			p.finish(&cp)
			p.logger.Info("operation cancelled",
				zap.String("operation_id", opID),
				zap.Int("processed_records", cp.ProcessedRecords))
			return
		}

		end := start + batchSize
		if end > total {
			end = total
		}

		var successful, failed int
		for i := start; i < end; i++ {
			rowNum := i + 1
			if i < len(payloadRows) {
				rowNum = payloadRows[i]
			}

			wctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
			err := write(wctx, payload[i])
			cancel()

			if err != nil {
				failed++
				p.collector.Record(opID, ExecutionError{
					Row:     rowNum,
					Message: err.Error(),
					Phase:   PhaseExecution,
				})
			} else {
				successful++
			}
		}

		rt.mu.Lock()
		err := CompleteBatch(rt.op, successful, failed)
		cp := *rt.op
		rt.mu.Unlock()
		if err != nil {
			p.logger.Error("batch counters rejected", zap.String("operation_id", opID), zap.Error(err))
		}

		p.persist(&cp)
	}

	rt.mu.Lock()
	err := Finish(rt.op)
	rt.op.Errors = p.collector.List(opID, ErrorFilter{})
	final := *rt.op
	rt.mu.Unlock()
	if err != nil {
		p.logger.Error("finish rejected", zap.String("operation_id", opID), zap.Error(err))
	}

	p.finish(&final)
	p.logger.Info("operation finished",
		zap.String("operation_id", opID),
		zap.String("status", string(final.Status)),
		zap.Int("successful_records", final.SuccessfulRecords),
		zap.Int("failed_records", final.FailedRecords))
}

func (p *BatchProcessor) persist(op *Operation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.repo.Update(ctx, op); err != nil {
		p.logger.Error("failed to persist operation progress",
			zap.String("operation_id", op.ID.Hex()),
			zap.Error(err))
	}
}

// finish persists the terminal document, notifies the sink and releases the
// live runtime. Reads after this point are served from the store.
func (p *BatchProcessor) finish(op *Operation) {
	p.persist(op)

	if p.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p.sink.OperationFinished(ctx, op)
	}

	p.reg.remove(op.ID.Hex())
}
