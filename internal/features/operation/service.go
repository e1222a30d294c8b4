package operation

import (
	"context"
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/config"
	"go-inspect/internal/features/export"
	"go-inspect/internal/features/record"
	"go-inspect/internal/features/schema"

	"go.uber.org/zap"
)

// BulkDeleteResult reports per-id outcome of a bulk delete request.
type BulkDeleteResult struct {
	Deleted int64    `json:"deleted"`
	Skipped []string `json:"skipped,omitempty"`
}

type OperationService interface {
	Validate(ctx context.Context, dataType string, rows []common_models.Row, cfg common_models.BatchConfig) (*schema.ValidationResult, error)
	SubmitImport(ctx context.Context, dataType string, rows []common_models.Row, cfg common_models.BatchConfig, createdBy, description string) (*Operation, *schema.ValidationResult, error)
	SubmitBatch(ctx context.Context, dataType, action string, rows []common_models.Row, cfg common_models.BatchConfig, createdBy, description string) (*Operation, *schema.ValidationResult, error)
	Export(ctx context.Context, dataType string, filters map[string]interface{}, format string) ([]byte, string, error)
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Operation, common_models.Pagination, error)
	Get(ctx context.Context, id string) (*Operation, error)
	Progress(ctx context.Context, id string) (*ProgressSnapshot, error)
	Errors(ctx context.Context, id string, filter ErrorFilter) ([]ExecutionError, error)
	Cancel(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error)
	Result(ctx context.Context, id string, format string) ([]byte, string, error)
}

type OperationServiceImpl struct {
	Repo      Repository
	Validator *schema.Validator
	Store     record.Store
	Exporter  *export.Exporter
	Config    *config.Config
	Logger    *zap.Logger

	reg       *registry
	collector *ErrorCollector
	tracker   *ProgressTracker
	processor *BatchProcessor
}

func NewOperationService(
	repo Repository,
	validator *schema.Validator,
	store record.Store,
	exporter *export.Exporter,
	sink TerminalSink,
	cfg *config.Config,
	logger *zap.Logger,
) OperationService {
	reg := newRegistry()
	collector := NewErrorCollector()

	return &OperationServiceImpl{
		Repo:      repo,
		Validator: validator,
		Store:     store,
		Exporter:  exporter,
		Config:    cfg,
		Logger:    logger,
		reg:       reg,
		collector: collector,
		tracker:   NewProgressTracker(reg, repo),
		processor: NewBatchProcessor(reg, repo, collector, sink, logger,
			time.Duration(cfg.RecordWriteTimeoutMs)*time.Millisecond),
	}
}

func (s *OperationServiceImpl) Validate(ctx context.Context, dataType string, rows []common_models.Row, cfg common_models.BatchConfig) (*schema.ValidationResult, error) {
	dt, err := schema.ParseDataType(dataType)
	if err != nil {
		return nil, err
	}
	return s.Validator.Validate(rows, dt, cfg.Normalize(s.Config.DefaultBatchSize))
}

func (s *OperationServiceImpl) SubmitImport(ctx context.Context, dataType string, rows []common_models.Row, cfg common_models.BatchConfig, createdBy, description string) (*Operation, *schema.ValidationResult, error) {
	dt, err := schema.ParseDataType(dataType)
	if err != nil {
		return nil, nil, err
	}
	opType, err := TypeFor(dt, ActionCreate)
	if err != nil {
		return nil, nil, err
	}
	return s.submit(ctx, opType, rows, cfg, createdBy, description)
}

func (s *OperationServiceImpl) SubmitBatch(ctx context.Context, dataType, action string, rows []common_models.Row, cfg common_models.BatchConfig, createdBy, description string) (*Operation, *schema.ValidationResult, error) {
	dt, err := schema.ParseDataType(dataType)
	if err != nil {
		return nil, nil, err
	}

	var writeAction WriteAction
	switch action {
	case "update":
		writeAction = ActionUpdate
	case "delete":
		writeAction = ActionDelete
	default:
		return nil, nil, fmt.Errorf("unknown batch action: %q", action)
	}

	opType, err := TypeFor(dt, writeAction)
	if err != nil {
		return nil, nil, err
	}
	return s.submit(ctx, opType, rows, cfg, createdBy, description)
}

func (s *OperationServiceImpl) submit(ctx context.Context, opType OperationType, rows []common_models.Row, cfg common_models.BatchConfig, createdBy, description string) (*Operation, *schema.ValidationResult, error) {
	binding, err := BindingFor(opType)
	if err != nil {
		return nil, nil, err
	}

	cfg = cfg.Normalize(s.Config.DefaultBatchSize)

	result, err := s.Validator.Validate(rows, binding.DataType, cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ValidateOnly {
		return nil, result, nil
	}
	if len(result.ValidData) == 0 {
		return nil, result, fmt.Errorf("no valid rows to process")
	}

	op := Submit(opType, binding, result.ValidData, result.RowNumbers, cfg, createdBy, description)
	if err := s.Repo.Create(ctx, op); err != nil {
		return nil, nil, err
	}

	opID := op.ID.Hex()
	for _, ve := range result.Errors {
		s.collector.Record(opID, ExecutionError{
			Row:     ve.Row,
			Field:   ve.Field,
			Message: ve.Message,
			Value:   ve.Value,
			Phase:   PhaseValidation,
		})
	}

	rt := newRuntime(op)
	s.reg.add(opID, rt)
	go s.processor.Run(rt, s.writeFunc(binding, cfg))

	s.Logger.Info("operation submitted",
		zap.String("operation_id", opID),
		zap.String("type", string(opType)),
		zap.String("created_by", createdBy),
		zap.Int("total_records", op.TotalRecords))

	return op, result, nil
}

// writeFunc binds the operation type to the record store verb it drives.
func (s *OperationServiceImpl) writeFunc(binding Binding, cfg common_models.BatchConfig) WriteFunc {
	dt := binding.DataType
	switch binding.Action {
	case ActionCreate:
		if cfg.UpdateExisting {
			return func(ctx context.Context, row common_models.Row) error {
				return s.Store.Upsert(ctx, dt, row)
			}
		}
		return func(ctx context.Context, row common_models.Row) error {
			return s.Store.Create(ctx, dt, row)
		}
	case ActionUpdate:
		return func(ctx context.Context, row common_models.Row) error {
			return s.Store.Update(ctx, dt, row)
		}
	case ActionDelete:
		return func(ctx context.Context, row common_models.Row) error {
			return s.Store.Delete(ctx, dt, row)
		}
	default:
		return func(ctx context.Context, row common_models.Row) error {
			return fmt.Errorf("action %q has no write capability", binding.Action)
		}
	}
}

// Export is a synchronous download; it is not tracked as an operation.
func (s *OperationServiceImpl) Export(ctx context.Context, dataType string, filters map[string]interface{}, format string) ([]byte, string, error) {
	dt, err := schema.ParseDataType(dataType)
	if err != nil {
		return nil, "", err
	}

	sc, err := schema.SchemaFor(dt)
	if err != nil {
		return nil, "", err
	}

	rows, err := s.Store.List(ctx, dt, filters)
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("%s_export_%s", dt, time.Now().Format("20060102_150405"))
	return s.Exporter.Render(format, name, sc.Columns(), rows)
}

func (s *OperationServiceImpl) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Operation, common_models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	ops, total, err := s.Repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, common_models.Pagination{}, err
	}

	// Live operations are fresher in memory than in the store
	for i := range ops {
		if rt, ok := s.reg.get(ops[i].ID.Hex()); ok {
			cp := rt.snapshot()
			cp.Payload = nil
			cp.PayloadRows = nil
			cp.Errors = nil
			ops[i] = cp
		}
	}

	return ops, common_models.NewPagination(page, pageSize, total), nil
}

func (s *OperationServiceImpl) Get(ctx context.Context, id string) (*Operation, error) {
	if rt, ok := s.reg.get(id); ok {
		cp := rt.snapshot()
		cp.Payload = nil
		cp.PayloadRows = nil
		return &cp, nil
	}

	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	op.Payload = nil
	op.PayloadRows = nil
	return op, nil
}

func (s *OperationServiceImpl) Progress(ctx context.Context, id string) (*ProgressSnapshot, error) {
	return s.tracker.Snapshot(ctx, id)
}

func (s *OperationServiceImpl) Errors(ctx context.Context, id string, filter ErrorFilter) ([]ExecutionError, error) {
	if errs := s.collector.List(id, filter); len(errs) > 0 {
		return errs, nil
	}

	// Collector is empty after a restart; serve the persisted terminal list
	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := []ExecutionError{}
	for _, e := range op.Errors {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *OperationServiceImpl) Cancel(ctx context.Context, id string) error {
	if rt, ok := s.reg.get(id); ok {
		rt.mu.Lock()
		status := rt.op.Status
		rt.mu.Unlock()
		if status != StatusRunning {
			return &InvalidTransition{From: status, Event: "cancel"}
		}
		rt.cancelled.Store(true)
		s.Logger.Info("cancellation requested", zap.String("operation_id", id))
		return nil
	}

	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return &InvalidTransition{From: op.Status, Event: "cancel"}
}

func (s *OperationServiceImpl) Retry(ctx context.Context, id string) error {
	if rt, ok := s.reg.get(id); ok {
		rt.mu.Lock()
		status := rt.op.Status
		rt.mu.Unlock()
		return &InvalidTransition{From: status, Event: "retry"}
	}

	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := Retry(op); err != nil {
		return err
	}

	binding, err := BindingFor(op.Type)
	if err != nil {
		return err
	}

	s.collector.Clear(id)

	if err := s.Repo.Update(ctx, op); err != nil {
		return err
	}

	rt := newRuntime(op)
	s.reg.add(id, rt)
	go s.processor.Run(rt, s.writeFunc(binding, op.Config))

	s.Logger.Info("operation retry started", zap.String("operation_id", id))
	return nil
}

func (s *OperationServiceImpl) Delete(ctx context.Context, id string) error {
	if rt, ok := s.reg.get(id); ok {
		rt.mu.Lock()
		status := rt.op.Status
		rt.mu.Unlock()
		return &InvalidTransition{From: status, Event: "delete"}
	}

	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := EnsureDeletable(op); err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.collector.Clear(id)
	return nil
}

func (s *OperationServiceImpl) BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{}
	deletable := []string{}

	for _, id := range ids {
		if _, ok := s.reg.get(id); ok {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		op, err := s.Repo.Get(ctx, id)
		if err != nil {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		if err := EnsureDeletable(op); err != nil {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		deletable = append(deletable, id)
	}

	if len(deletable) > 0 {
		deleted, err := s.Repo.BulkDelete(ctx, deletable)
		if err != nil {
			return nil, err
		}
		result.Deleted = deleted
		for _, id := range deletable {
			s.collector.Clear(id)
		}
	}

	return result, nil
}

// Result renders the downloadable error report: each failed row in the data
// type's own column layout plus the error details, so a user can fix the file
// and re-import it.
func (s *OperationServiceImpl) Result(ctx context.Context, id string, format string) ([]byte, string, error) {
	op, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if !op.Status.Terminal() {
		return nil, "", &InvalidTransition{From: op.Status, Event: "download result of"}
	}

	sc, err := schema.SchemaFor(op.DataType)
	if err != nil {
		return nil, "", err
	}

	errs := op.Errors
	if live := s.collector.List(id, ErrorFilter{}); len(live) > 0 {
		errs = live
	}

	byRow := make(map[int]common_models.Row, len(op.Payload))
	for i, row := range op.Payload {
		if i < len(op.PayloadRows) {
			byRow[op.PayloadRows[i]] = row
		}
	}

	columns := append(sc.Columns(), "row", "error_field", "error_message")
	reportRows := make([]map[string]interface{}, 0, len(errs))
	for _, e := range errs {
		row := map[string]interface{}{}
		for k, v := range byRow[e.Row] {
			row[k] = v
		}
		row["row"] = e.Row
		row["error_field"] = e.Field
		row["error_message"] = e.Message
		reportRows = append(reportRows, row)
	}

	name := fmt.Sprintf("%s_errors_%s", op.Type, op.ID.Hex())
	return s.Exporter.Render(format, name, columns, reportRows)
}
