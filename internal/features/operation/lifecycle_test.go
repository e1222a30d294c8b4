package operation

import (
	"testing"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/features/schema"
)

func newTestOperation(t *testing.T, n int) *Operation {
	t.Helper()

	rows := make([]common_models.Row, n)
	rowNums := make([]int, n)
	for i := range rows {
		rows[i] = common_models.Row{"employee_no": "E001"}
		rowNums[i] = i + 1
	}

	binding := Binding{DataType: schema.DataTypeInspector, Action: ActionCreate}
	return Submit(TypeInspectorImport, binding, rows, rowNums, common_models.BatchConfig{BatchSize: 100}, "tester", "")
}

func TestSubmitInitialState(t *testing.T) {
	op := newTestOperation(t, 5)

	if op.Status != StatusPending {
		t.Errorf("Status = %s, want pending", op.Status)
	}
	if op.TotalRecords != 5 {
		t.Errorf("TotalRecords = %d, want 5", op.TotalRecords)
	}
	if op.ProcessedRecords != 0 || op.SuccessfulRecords != 0 || op.FailedRecords != 0 {
		t.Errorf("counters not zeroed: %d/%d/%d", op.ProcessedRecords, op.SuccessfulRecords, op.FailedRecords)
	}
	if op.Progress != 0 {
		t.Errorf("Progress = %f, want 0", op.Progress)
	}
	if op.ID.IsZero() {
		t.Error("ID not assigned")
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(op *Operation)
		apply   func(op *Operation) error
		wantErr bool
		want    OperationStatus
	}{
		{
			name:    "pending starts",
			prepare: func(op *Operation) {},
			apply:   Start,
			want:    StatusRunning,
		},
		{
			name:    "running cannot start again",
			prepare: func(op *Operation) { Start(op) },
			apply:   Start,
			wantErr: true,
			want:    StatusRunning,
		},
		{
			name:    "running finishes completed when nothing failed",
			prepare: func(op *Operation) { Start(op) },
			apply:   Finish,
			want:    StatusCompleted,
		},
		{
			name: "running finishes failed when a record failed",
			prepare: func(op *Operation) {
				Start(op)
				CompleteBatch(op, 4, 1)
			},
			apply: Finish,
			want:  StatusFailed,
		},
		{
			name:    "running cancels",
			prepare: func(op *Operation) { Start(op) },
			apply:   Cancel,
			want:    StatusCancelled,
		},
		{
			name:    "pending cannot cancel",
			prepare: func(op *Operation) {},
			apply:   Cancel,
			wantErr: true,
			want:    StatusPending,
		},
		{
			name: "completed cannot cancel",
			prepare: func(op *Operation) {
				Start(op)
				Finish(op)
			},
			apply:   Cancel,
			wantErr: true,
			want:    StatusCompleted,
		},
		{
			name: "completed cannot retry",
			prepare: func(op *Operation) {
				Start(op)
				Finish(op)
			},
			apply:   Retry,
			wantErr: true,
			want:    StatusCompleted,
		},
		{
			name: "cancelled cannot retry",
			prepare: func(op *Operation) {
				Start(op)
				Cancel(op)
			},
			apply:   Retry,
			wantErr: true,
			want:    StatusCancelled,
		},
		{
			name: "failed retries back to pending",
			prepare: func(op *Operation) {
				Start(op)
				CompleteBatch(op, 0, 5)
				Finish(op)
			},
			apply: Retry,
			want:  StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := newTestOperation(t, 5)
			tt.prepare(op)

			err := tt.apply(op)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !IsInvalidTransition(err) {
				t.Errorf("error is not InvalidTransition: %v", err)
			}
			if op.Status != tt.want {
				t.Errorf("Status = %s, want %s", op.Status, tt.want)
			}
		})
	}
}

func TestRetryResetsCounters(t *testing.T) {
	op := newTestOperation(t, 5)
	Start(op)
	CompleteBatch(op, 3, 2)
	Finish(op)

	if op.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", op.Status)
	}

	if err := Retry(op); err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}

	if op.Status != StatusPending {
		t.Errorf("Status = %s, want pending", op.Status)
	}
	if op.ProcessedRecords != 0 || op.SuccessfulRecords != 0 || op.FailedRecords != 0 {
		t.Errorf("counters not reset: %d/%d/%d", op.ProcessedRecords, op.SuccessfulRecords, op.FailedRecords)
	}
	if op.Progress != 0 {
		t.Errorf("Progress = %f, want 0", op.Progress)
	}
	if op.StartedAt != nil || op.CompletedAt != nil {
		t.Error("run timestamps not cleared")
	}
	if len(op.Payload) != 5 {
		t.Errorf("payload lost on retry: %d rows", len(op.Payload))
	}
}

func TestEnsureDeletable(t *testing.T) {
	op := newTestOperation(t, 1)

	if err := EnsureDeletable(op); !IsInvalidTransition(err) {
		t.Errorf("pending delete: err = %v, want InvalidTransition", err)
	}

	Start(op)
	if err := EnsureDeletable(op); !IsInvalidTransition(err) {
		t.Errorf("running delete: err = %v, want InvalidTransition", err)
	}

	Finish(op)
	if err := EnsureDeletable(op); err != nil {
		t.Errorf("completed delete: err = %v, want nil", err)
	}
}
