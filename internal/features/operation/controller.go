package operation

import (
	"errors"
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

type OperationController struct {
	Service OperationService
}

func NewOperationController(service OperationService) *OperationController {
	return &OperationController{Service: service}
}

type submitRequest struct {
	DataType    string                    `json:"data_type"`
	Action      string                    `json:"action,omitempty"`
	Rows        []common_models.Row       `json:"rows"`
	Config      common_models.BatchConfig `json:"config"`
	Description string                    `json:"description,omitempty"`
}

type exportRequest struct {
	DataType string                 `json:"data_type"`
	Filters  map[string]interface{} `json:"filters,omitempty"`
	Format   string                 `json:"format,omitempty"`
}

// respondError maps domain errors onto HTTP statuses.
func respondError(ctx *fiber.Ctx, err error) error {
	switch {
	case IsInvalidTransition(err):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, mongo.ErrNoDocuments):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func createdBy(ctx *fiber.Ctx) string {
	if claims, ok := middleware.Claims(ctx); ok {
		return claims.UserID
	}
	return ""
}

// ValidateRows godoc
// @Summary Validate a row set
// @Description Run the validation pass without writing anything
// @Tags operations
// @Accept json
// @Produce json
// @Success 200 {object} schema.ValidationResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/operations/validate [post]
func (c *OperationController) ValidateRows(ctx *fiber.Ctx) error {
	var req submitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	result, err := c.Service.Validate(ctx.UserContext(), req.DataType, req.Rows, req.Config)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(result)
}

// SubmitImport godoc
// @Summary Submit an import operation
// @Description Validate rows and start an asynchronous import of the valid subset
// @Tags operations
// @Accept json
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/operations/import [post]
func (c *OperationController) SubmitImport(ctx *fiber.Ctx) error {
	var req submitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	op, result, err := c.Service.SubmitImport(ctx.UserContext(), req.DataType, req.Rows, req.Config, createdBy(ctx), req.Description)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "validation": result})
	}

	// validate_only short-circuits before an operation is created
	if op == nil {
		return ctx.JSON(fiber.Map{"validation": result})
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"operation_id": op.ID.Hex(),
		"validation":   result,
	})
}

// SubmitBatch godoc
// @Summary Submit a batch update or delete
// @Description Start an asynchronous bulk update/delete over the supplied rows
// @Tags operations
// @Accept json
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/operations/batch [post]
func (c *OperationController) SubmitBatch(ctx *fiber.Ctx) error {
	var req submitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	op, result, err := c.Service.SubmitBatch(ctx.UserContext(), req.DataType, req.Action, req.Rows, req.Config, createdBy(ctx), req.Description)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "validation": result})
	}

	if op == nil {
		return ctx.JSON(fiber.Map{"validation": result})
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"operation_id": op.ID.Hex(),
		"validation":   result,
	})
}

// ExportData godoc
// @Summary Export records
// @Description Synchronously export records of a data type as a spreadsheet blob
// @Tags operations
// @Accept json
// @Produce application/octet-stream
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Router /api/operations/export [post]
func (c *OperationController) ExportData(ctx *fiber.Ctx) error {
	var req exportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	blob, filename, err := c.Service.Export(ctx.UserContext(), req.DataType, req.Filters, req.Format)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Send(blob)
}

// ListOperations godoc
// @Summary List operation history
// @Description Paged, filterable view over all operations
// @Tags operations
// @Produce json
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param createdBy query string false "Creator filter"
// @Param dateFrom query string false "Created from (RFC3339 or 2006-01-02)"
// @Param dateTo query string false "Created to"
// @Param search query string false "Free text over type/description"
// @Success 200 {object} map[string]interface{}
// @Router /api/operations [get]
func (c *OperationController) ListOperations(ctx *fiber.Ctx) error {
	filter := ListFilter{
		Status:    ctx.Query("status"),
		Type:      ctx.Query("type"),
		CreatedBy: ctx.Query("createdBy"),
		Search:    ctx.Query("search"),
	}

	if from := parseDate(ctx.Query("dateFrom")); from != nil {
		filter.DateFrom = from
	}
	if to := parseDate(ctx.Query("dateTo")); to != nil {
		filter.DateTo = to
	}

	ops, pagination, err := c.Service.List(ctx.UserContext(), filter, ctx.QueryInt("page", 1), ctx.QueryInt("pageSize", 20))
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":       ops,
		"pagination": pagination,
	})
}

// GetOperation godoc
// @Summary Get one operation
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} Operation
// @Failure 404 {object} map[string]interface{}
// @Router /api/operations/{id} [get]
func (c *OperationController) GetOperation(ctx *fiber.Ctx) error {
	op, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
	}
	return ctx.JSON(op)
}

// GetProgress godoc
// @Summary Poll operation progress
// @Description Read-only progress snapshot, safe to poll while batches run
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} ProgressSnapshot
// @Failure 404 {object} map[string]interface{}
// @Router /api/operations/{id}/progress [get]
func (c *OperationController) GetProgress(ctx *fiber.Ctx) error {
	snap, err := c.Service.Progress(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
	}
	return ctx.JSON(snap)
}

// GetErrors godoc
// @Summary List operation errors
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Param field query string false "Filter by field"
// @Param search query string false "Free text over message/value"
// @Success 200 {array} ExecutionError
// @Router /api/operations/{id}/errors [get]
func (c *OperationController) GetErrors(ctx *fiber.Ctx) error {
	filter := ErrorFilter{
		Field:  ctx.Query("field"),
		Search: ctx.Query("search"),
	}

	errs, err := c.Service.Errors(ctx.UserContext(), ctx.Params("id"), filter)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Operation not found"})
	}
	return ctx.JSON(errs)
}

// CancelOperation godoc
// @Summary Cancel a running operation
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/operations/{id}/cancel [post]
func (c *OperationController) CancelOperation(ctx *fiber.Ctx) error {
	if err := c.Service.Cancel(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Cancellation requested"})
}

// RetryOperation godoc
// @Summary Retry a failed operation
// @Description Re-runs the whole validated row set with counters reset
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/operations/{id}/retry [post]
func (c *OperationController) RetryOperation(ctx *fiber.Ctx) error {
	if err := c.Service.Retry(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Retry started"})
}

// DeleteOperation godoc
// @Summary Delete a terminal operation
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/operations/{id} [delete]
func (c *OperationController) DeleteOperation(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Operation deleted"})
}

// BulkDeleteOperations godoc
// @Summary Bulk delete terminal operations
// @Tags operations
// @Accept json
// @Produce json
// @Success 200 {object} BulkDeleteResult
// @Router /api/operations [delete]
func (c *OperationController) BulkDeleteOperations(ctx *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	result, err := c.Service.BulkDelete(ctx.UserContext(), req.IDs)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(result)
}

// DownloadResult godoc
// @Summary Download the error report of a terminal operation
// @Tags operations
// @Produce application/octet-stream
// @Param id path string true "Operation ID"
// @Param format query string false "xlsx or csv" default(xlsx)
// @Success 200 {file} binary
// @Failure 409 {object} map[string]interface{}
// @Router /api/operations/{id}/result [get]
func (c *OperationController) DownloadResult(ctx *fiber.Ctx) error {
	blob, filename, err := c.Service.Result(ctx.UserContext(), ctx.Params("id"), ctx.Query("format"))
	if err != nil {
		return respondError(ctx, err)
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Send(blob)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
