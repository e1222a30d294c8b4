package operation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	common_models "go-inspect/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeRepository is an in-memory Repository capturing every persisted state.
type fakeRepository struct {
	mu      sync.Mutex
	docs    map[string]Operation
	updates []Operation
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{docs: map[string]Operation{}}
}

func (r *fakeRepository) Create(ctx context.Context, op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[op.ID.Hex()] = *op
	return nil
}

func (r *fakeRepository) Get(ctx context.Context, id string) (*Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := op
	return &cp, nil
}

func (r *fakeRepository) Update(ctx context.Context, op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[op.ID.Hex()] = *op
	r.updates = append(r.updates, *op)
	return nil
}

func (r *fakeRepository) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Operation, int64, error) {
	return nil, 0, nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}

func (r *fakeRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.docs[id]; ok {
			delete(r.docs, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeRepository) EnsureIndexes(ctx context.Context) error { return nil }

type fakeSink struct {
	mu       sync.Mutex
	finished []Operation
}

func (s *fakeSink) OperationFinished(ctx context.Context, op *Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, *op)
}

func newTestProcessor(repo Repository, sink TerminalSink) (*BatchProcessor, *registry, *ErrorCollector) {
	reg := newRegistry()
	collector := NewErrorCollector()
	p := NewBatchProcessor(reg, repo, collector, sink, zap.NewNop(), time.Second)
	return p, reg, collector
}

func TestProcessorPartialFailure(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeSink{}
	p, reg, _ := newTestProcessor(repo, sink)

	op := newTestOperation(t, 250)
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	var count int
	write := func(ctx context.Context, row common_models.Row) error {
		count++
		if count == 175 {
			return fmt.Errorf("duplicate key")
		}
		return nil
	}

	p.Run(rt, write)

	final, err := repo.Get(context.Background(), op.ID.Hex())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if final.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", final.Status)
	}
	if final.ProcessedRecords != 250 {
		t.Errorf("ProcessedRecords = %d, want 250", final.ProcessedRecords)
	}
	if final.SuccessfulRecords != 249 {
		t.Errorf("SuccessfulRecords = %d, want 249", final.SuccessfulRecords)
	}
	if final.FailedRecords != 1 {
		t.Errorf("FailedRecords = %d, want 1", final.FailedRecords)
	}
	if final.Progress != 100 {
		t.Errorf("Progress = %f, want 100", final.Progress)
	}

	if len(final.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(final.Errors))
	}
	if final.Errors[0].Row != 175 {
		t.Errorf("error row = %d, want 175", final.Errors[0].Row)
	}
	if final.Errors[0].Phase != PhaseExecution {
		t.Errorf("error phase = %s, want execution", final.Errors[0].Phase)
	}

	if len(sink.finished) != 1 || sink.finished[0].Status != StatusFailed {
		t.Errorf("sink not notified of terminal state: %+v", sink.finished)
	}
	if _, ok := reg.get(op.ID.Hex()); ok {
		t.Error("runtime still registered after terminal state")
	}
}

func TestProcessorAllSucceed(t *testing.T) {
	repo := newFakeRepository()
	p, reg, _ := newTestProcessor(repo, nil)

	op := newTestOperation(t, 42)
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	p.Run(rt, func(ctx context.Context, row common_models.Row) error { return nil })

	final, _ := repo.Get(context.Background(), op.ID.Hex())
	if final.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", final.Status)
	}
	if final.SuccessfulRecords != 42 || final.FailedRecords != 0 {
		t.Errorf("counters = %d/%d, want 42/0", final.SuccessfulRecords, final.FailedRecords)
	}
	if len(final.Errors) != 0 {
		t.Errorf("got %d errors, want 0", len(final.Errors))
	}
}

func TestProcessorCancellationAtBatchBoundary(t *testing.T) {
	repo := newFakeRepository()
	p, reg, _ := newTestProcessor(repo, nil)

	op := newTestOperation(t, 500)
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	var count int
	write := func(ctx context.Context, row common_models.Row) error {
		count++
		// Request cancellation mid-batch; it must only take effect at
		// the next batch boundary.
		if count == 150 {
			rt.cancelled.Store(true)
		}
		return nil
	}

	p.Run(rt, write)

	final, _ := repo.Get(context.Background(), op.ID.Hex())
	if final.Status != StatusCancelled {
		t.Errorf("Status = %s, want cancelled", final.Status)
	}
	// Batch 2 (records 101-200) finishes, batch 3 is never attempted
	if final.ProcessedRecords != 200 {
		t.Errorf("ProcessedRecords = %d, want 200", final.ProcessedRecords)
	}
	if final.SuccessfulRecords != 200 {
		t.Errorf("SuccessfulRecords = %d, want 200", final.SuccessfulRecords)
	}
	if count != 200 {
		t.Errorf("write called %d times, want 200", count)
	}
}

func TestProcessorPanicBecomesSystemFault(t *testing.T) {
	repo := newFakeRepository()
	sink := &fakeSink{}
	p, reg, collector := newTestProcessor(repo, sink)

	op := newTestOperation(t, 10)
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	p.Run(rt, func(ctx context.Context, row common_models.Row) error {
		panic("boom")
	})

	final, _ := repo.Get(context.Background(), op.ID.Hex())
	if final.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", final.Status)
	}

	errs := collector.List(op.ID.Hex(), ErrorFilter{})
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1 synthetic fault", len(errs))
	}
	if errs[0].Phase != PhaseExecution {
		t.Errorf("fault phase = %s, want execution", errs[0].Phase)
	}

	if len(sink.finished) != 1 {
		t.Errorf("sink not notified after fault")
	}
	if _, ok := reg.get(op.ID.Hex()); ok {
		t.Error("runtime still registered after fault")
	}
}

func TestProcessorProgressIsMonotonic(t *testing.T) {
	repo := newFakeRepository()
	p, reg, _ := newTestProcessor(repo, nil)

	op := newTestOperation(t, 350)
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	p.Run(rt, func(ctx context.Context, row common_models.Row) error { return nil })

	var prevProcessed int
	var prevProgress float64
	for _, u := range repo.updates {
		if u.ProcessedRecords < prevProcessed {
			t.Fatalf("processed went backwards: %d after %d", u.ProcessedRecords, prevProcessed)
		}
		if u.Progress < prevProgress {
			t.Fatalf("progress went backwards: %f after %f", u.Progress, prevProgress)
		}
		if u.ProcessedRecords > u.TotalRecords {
			t.Fatalf("processed %d exceeds total %d", u.ProcessedRecords, u.TotalRecords)
		}
		prevProcessed = u.ProcessedRecords
		prevProgress = u.Progress
	}
}

func TestProcessorStableRowNumbersFromPayload(t *testing.T) {
	repo := newFakeRepository()
	p, reg, _ := newTestProcessor(repo, nil)

	// Rows 2 and 4 were rejected by validation, so the payload carries
	// original file positions 1, 3, 5.
	op := newTestOperation(t, 3)
	op.PayloadRows = []int{1, 3, 5}
	repo.Create(context.Background(), op)

	rt := newRuntime(op)
	reg.add(op.ID.Hex(), rt)

	var count int
	write := func(ctx context.Context, row common_models.Row) error {
		count++
		if count == 2 {
			return fmt.Errorf("write refused")
		}
		return nil
	}

	p.Run(rt, write)

	final, _ := repo.Get(context.Background(), op.ID.Hex())
	if len(final.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(final.Errors))
	}
	if final.Errors[0].Row != 3 {
		t.Errorf("error row = %d, want original position 3", final.Errors[0].Row)
	}
}
