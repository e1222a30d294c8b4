package operation

import (
	"go-inspect/internal/config"
	"go-inspect/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OperationApi struct {
	Controller *OperationController
	Config     *config.Config
}

func NewOperationApi(controller *OperationController, cfg *config.Config) *OperationApi {
	return &OperationApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (a *OperationApi) Setup(app *fiber.App) {
	group := app.Group("/api/operations", middleware.AuthMiddleware(a.Config.SkipAuth))

	group.Post("/validate", a.Controller.ValidateRows)
	group.Post("/import", a.Controller.SubmitImport)
	group.Post("/batch", a.Controller.SubmitBatch)
	group.Post("/export", a.Controller.ExportData)

	group.Get("/", a.Controller.ListOperations)
	group.Delete("/", a.Controller.BulkDeleteOperations)

	group.Get("/:id", a.Controller.GetOperation)
	group.Delete("/:id", a.Controller.DeleteOperation)
	group.Get("/:id/progress", a.Controller.GetProgress)
	group.Get("/:id/errors", a.Controller.GetErrors)
	group.Get("/:id/result", a.Controller.DownloadResult)
	group.Post("/:id/cancel", a.Controller.CancelOperation)
	group.Post("/:id/retry", a.Controller.RetryOperation)
}
