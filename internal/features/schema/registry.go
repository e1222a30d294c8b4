package schema

import (
	"fmt"

	common_models "go-inspect/internal/common/models"
)

var registry = map[DataType]*Schema{
	DataTypeInspector: {
		DataType:   DataTypeInspector,
		Label:      "Inspectors",
		Collection: "inspectors",
		KeyFields:  []string{"employee_no"},
		Fields: []common_models.SchemaField{
			{Name: "employee_no", Label: "Employee No", Type: common_models.FieldTypeText, Required: true, Example: "EMP-0001"},
			{Name: "name", Label: "Name", Type: common_models.FieldTypeText, Required: true, Example: "Jane Smith"},
			{Name: "department", Label: "Department", Type: common_models.FieldTypeText, Example: "Field Ops"},
			{Name: "grade", Label: "Grade", Type: common_models.FieldTypeSelect, Example: "senior", Options: []common_models.SelectOption{
				{Label: "Junior", Value: "junior"},
				{Label: "Senior", Value: "senior"},
				{Label: "Lead", Value: "lead"},
			}},
			{Name: "certified_at", Label: "Certified At", Type: common_models.FieldTypeDate, Example: "2024-03-01"},
			{Name: "email", Label: "Email", Type: common_models.FieldTypeEmail, Example: "jane.smith@example.com"},
			{Name: "active", Label: "Active", Type: common_models.FieldTypeBoolean, Example: "true"},
		},
	},
	DataTypeAttendance: {
		DataType:   DataTypeAttendance,
		Label:      "Attendance",
		Collection: "attendance",
		KeyFields:  []string{"employee_no", "date"},
		Fields: []common_models.SchemaField{
			{Name: "employee_no", Label: "Employee No", Type: common_models.FieldTypeText, Required: true, Example: "EMP-0001"},
			{Name: "date", Label: "Date", Type: common_models.FieldTypeDate, Required: true, Example: "2025-06-15"},
			{Name: "check_in", Label: "Check In", Type: common_models.FieldTypeText, Example: "08:30"},
			{Name: "check_out", Label: "Check Out", Type: common_models.FieldTypeText, Example: "17:30"},
			{Name: "hours", Label: "Hours", Type: common_models.FieldTypeNumber, Example: "8", Rule: "value >= 0 && value <= 24"},
			{Name: "status", Label: "Status", Type: common_models.FieldTypeSelect, Example: "present", Options: []common_models.SelectOption{
				{Label: "Present", Value: "present"},
				{Label: "Absent", Value: "absent"},
				{Label: "Leave", Value: "leave"},
				{Label: "Holiday", Value: "holiday"},
			}},
		},
	},
	DataTypeTemplate: {
		DataType:   DataTypeTemplate,
		Label:      "Report Templates",
		Collection: "report_templates",
		KeyFields:  []string{"code"},
		Fields: []common_models.SchemaField{
			{Name: "code", Label: "Code", Type: common_models.FieldTypeText, Required: true, Example: "TPL-001"},
			{Name: "title", Label: "Title", Type: common_models.FieldTypeText, Required: true, Example: "Monthly Safety Report"},
			{Name: "category", Label: "Category", Type: common_models.FieldTypeSelect, Example: "safety", Options: []common_models.SelectOption{
				{Label: "Safety", Value: "safety"},
				{Label: "Quality", Value: "quality"},
				{Label: "Maintenance", Value: "maintenance"},
			}},
			{Name: "revision", Label: "Revision", Type: common_models.FieldTypeNumber, Example: "1", Rule: "value >= 1"},
			{Name: "effective_from", Label: "Effective From", Type: common_models.FieldTypeDate, Example: "2025-01-01"},
		},
	},
}

// SchemaFor resolves the schema of a known data type.
func SchemaFor(dt DataType) (*Schema, error) {
	s, ok := registry[dt]
	if !ok {
		return nil, fmt.Errorf("no schema registered for data type %q", dt)
	}
	return s, nil
}
