package schema

import (
	"fmt"

	"go-inspect/internal/features/export"

	"github.com/gofiber/fiber/v2"
)

type SchemaController struct {
	Exporter *export.Exporter
}

func NewSchemaController(exporter *export.Exporter) *SchemaController {
	return &SchemaController{Exporter: exporter}
}

// GetSchema godoc
// @Summary Get data type schema
// @Description Get column definitions for a bulk data type
// @Tags templates
// @Produce json
// @Param dataType path string true "Data Type"
// @Success 200 {object} Schema
// @Failure 400 {object} map[string]interface{}
// @Router /api/schemas/{dataType} [get]
func (c *SchemaController) GetSchema(ctx *fiber.Ctx) error {
	dt, err := ParseDataType(ctx.Params("dataType"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s, err := SchemaFor(dt)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(s)
}

// DownloadTemplate godoc
// @Summary Download import template
// @Description Download a scaffold file with the expected columns and one example row
// @Tags templates
// @Produce application/octet-stream
// @Param dataType path string true "Data Type"
// @Param format query string false "xlsx or csv" default(xlsx)
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Router /api/templates/{dataType} [get]
func (c *SchemaController) DownloadTemplate(ctx *fiber.Ctx) error {
	dt, err := ParseDataType(ctx.Params("dataType"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s, err := SchemaFor(dt)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	format := ctx.Query("format", export.FormatXLSX)
	name := fmt.Sprintf("%s_template", dt)

	blob, filename, err := c.Exporter.Render(format, name, s.Columns(), []map[string]interface{}{s.ExampleRow()})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return ctx.Send(blob)
}
