package operation

import (
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/features/schema"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OperationStatus string

const (
	StatusPending   OperationStatus = "pending"
	StatusRunning   OperationStatus = "running"
	StatusCompleted OperationStatus = "completed"
	StatusFailed    OperationStatus = "failed"
	StatusCancelled OperationStatus = "cancelled"
)

// Terminal reports whether no further batch processing can occur.
func (s OperationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// WriteAction is the record-store verb an operation type drives.
type WriteAction string

const (
	ActionCreate WriteAction = "create"
	ActionUpdate WriteAction = "update"
	ActionDelete WriteAction = "delete"
	ActionExport WriteAction = "export"
)

// OperationType is a closed enum; unknown types are rejected at the boundary.
type OperationType string

const (
	TypeInspectorImport  OperationType = "inspector_import"
	TypeInspectorUpdate  OperationType = "inspector_update"
	TypeInspectorDelete  OperationType = "inspector_delete"
	TypeAttendanceImport OperationType = "attendance_import"
	TypeAttendanceUpdate OperationType = "attendance_update"
	TypeTemplateImport   OperationType = "template_import"
	TypeExportInspector  OperationType = "export_inspector"
	TypeExportAttendance OperationType = "export_attendance"
	TypeExportTemplate   OperationType = "export_template"
)

// Binding maps an operation type to the schema it validates against and the
// write action it performs.
type Binding struct {
	DataType schema.DataType
	Action   WriteAction
}

var bindings = map[OperationType]Binding{
	TypeInspectorImport:  {schema.DataTypeInspector, ActionCreate},
	TypeInspectorUpdate:  {schema.DataTypeInspector, ActionUpdate},
	TypeInspectorDelete:  {schema.DataTypeInspector, ActionDelete},
	TypeAttendanceImport: {schema.DataTypeAttendance, ActionCreate},
	TypeAttendanceUpdate: {schema.DataTypeAttendance, ActionUpdate},
	TypeTemplateImport:   {schema.DataTypeTemplate, ActionCreate},
	TypeExportInspector:  {schema.DataTypeInspector, ActionExport},
	TypeExportAttendance: {schema.DataTypeAttendance, ActionExport},
	TypeExportTemplate:   {schema.DataTypeTemplate, ActionExport},
}

// BindingFor resolves a known operation type.
func BindingFor(t OperationType) (Binding, error) {
	b, ok := bindings[t]
	if !ok {
		return Binding{}, fmt.Errorf("unknown operation type: %q", t)
	}
	return b, nil
}

// TypeFor resolves the operation type for a data type + action pair.
func TypeFor(dataType schema.DataType, action WriteAction) (OperationType, error) {
	for t, b := range bindings {
		if b.DataType == dataType && b.Action == action {
			return t, nil
		}
	}
	return "", fmt.Errorf("no operation type for %s/%s", dataType, action)
}

const (
	PhaseValidation = "validation"
	PhaseExecution  = "execution"
)

// ExecutionError is one per-record failure. Row is the 1-based position in
// the originally decoded file, stable across validation and execution.
type ExecutionError struct {
	Row     int         `json:"row" bson:"row"`
	Field   string      `json:"field,omitempty" bson:"field,omitempty"`
	Message string      `json:"message" bson:"message"`
	Value   interface{} `json:"value,omitempty" bson:"value,omitempty"`
	Phase   string      `json:"phase" bson:"phase"`
}

// Operation is the authoritative record for one submitted bulk job. It is
// created and mutated only through the lifecycle; everything else reads.
type Operation struct {
	ID          primitive.ObjectID          `json:"id" bson:"_id,omitempty"`
	Type        OperationType               `json:"type" bson:"type"`
	DataType    schema.DataType             `json:"data_type" bson:"data_type"`
	Status      OperationStatus             `json:"status" bson:"status"`
	Description string                      `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy   string                      `json:"created_by" bson:"created_by"`
	Config      common_models.BatchConfig   `json:"config" bson:"config"`

	TotalRecords      int     `json:"total_records" bson:"total_records"`
	ProcessedRecords  int     `json:"processed_records" bson:"processed_records"`
	SuccessfulRecords int     `json:"successful_records" bson:"successful_records"`
	FailedRecords     int     `json:"failed_records" bson:"failed_records"`
	Progress          float64 `json:"progress" bson:"progress"`
	CurrentStep       string  `json:"current_step,omitempty" bson:"current_step,omitempty"`

	// Payload is the validated row set, kept for deterministic retry.
	// PayloadRows carries each row's original 1-based file position.
	Payload     []common_models.Row `json:"-" bson:"payload,omitempty"`
	PayloadRows []int               `json:"-" bson:"payload_rows,omitempty"`

	Errors []ExecutionError `json:"errors,omitempty" bson:"errors,omitempty"`

	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Recompute derives Progress from the counters, clamped to [0,100].
// Zero total records means zero progress.
func (op *Operation) Recompute() {
	if op.TotalRecords <= 0 {
		op.Progress = 0
		return
	}
	p := float64(op.ProcessedRecords) / float64(op.TotalRecords) * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	op.Progress = p
}

// ProgressSnapshot is the read-only projection served to polling clients.
type ProgressSnapshot struct {
	OperationID       string          `json:"operation_id"`
	Status            OperationStatus `json:"status"`
	TotalRecords      int             `json:"total_records"`
	ProcessedRecords  int             `json:"processed_records"`
	SuccessfulRecords int             `json:"successful_records"`
	FailedRecords     int             `json:"failed_records"`
	Progress          float64         `json:"progress"`
	CurrentStep       string          `json:"current_step,omitempty"`
	StartedAt         *time.Time      `json:"started_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`

	// EstimatedRemainingMs is linear extrapolation from elapsed time;
	// omitted until the first record has been processed and after terminal.
	EstimatedRemainingMs *int64 `json:"estimated_remaining_ms,omitempty"`
}
