package schema

import (
	"github.com/gofiber/fiber/v2"
)

type SchemaApi struct {
	Controller *SchemaController
}

func NewSchemaApi(controller *SchemaController) *SchemaApi {
	return &SchemaApi{Controller: controller}
}

// Setup registers the stateless template scaffold routes. They carry no
// operation state, so no auth is required to fetch them.
func (a *SchemaApi) Setup(app *fiber.App) {
	app.Get("/api/schemas/:dataType", a.Controller.GetSchema)
	app.Get("/api/templates/:dataType", a.Controller.DownloadTemplate)
}
