package schema

import (
	"fmt"

	common_models "go-inspect/internal/common/models"
)

// DataType identifies one of the bulk data domains the console manages.
type DataType string

const (
	DataTypeInspector  DataType = "inspector"
	DataTypeAttendance DataType = "attendance"
	DataTypeTemplate   DataType = "template"
)

// ParseDataType rejects unknown data types at the boundary.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case DataTypeInspector, DataTypeAttendance, DataTypeTemplate:
		return DataType(s), nil
	}
	return "", fmt.Errorf("unknown data type: %q", s)
}

// Schema names the columns a data type expects from an uploaded file.
type Schema struct {
	DataType   DataType                    `json:"data_type"`
	Label      string                      `json:"label"`
	Collection string                      `json:"collection"`
	KeyFields  []string                    `json:"key_fields"`
	Fields     []common_models.SchemaField `json:"fields"`
}

// Columns returns field names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// ExampleRow builds the scaffold row served with download templates.
func (s *Schema) ExampleRow() common_models.Row {
	row := make(common_models.Row, len(s.Fields))
	for _, f := range s.Fields {
		row[f.Name] = f.Example
	}
	return row
}

// ValidationError is a row/field level finding from the validation pass.
type ValidationError struct {
	Row     int         `json:"row" bson:"row"`
	Field   string      `json:"field,omitempty" bson:"field,omitempty"`
	Message string      `json:"message" bson:"message"`
	Value   interface{} `json:"value,omitempty" bson:"value,omitempty"`
}

// ValidationResult is the outcome of checking a row set before any write.
// RowNumbers runs parallel to ValidData and carries each valid row's 1-based
// position in the original decoded set, so later execution errors can be
// correlated back to the file the user uploaded.
type ValidationResult struct {
	IsValid    bool                `json:"is_valid"`
	TotalRows  int                 `json:"total_rows"`
	ValidRows  int                 `json:"valid_rows"`
	Errors     []ValidationError   `json:"errors"`
	ValidData  []common_models.Row `json:"valid_data"`
	RowNumbers []int               `json:"row_numbers"`
}
