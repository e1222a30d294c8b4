package schema

import (
	"reflect"
	"testing"

	common_models "go-inspect/internal/common/models"
)

func TestColumnsDeclarationOrder(t *testing.T) {
	tests := []struct {
		dataType DataType
		want     []string
	}{
		{DataTypeInspector, []string{"employee_no", "name", "department", "grade", "certified_at", "email", "active"}},
		{DataTypeAttendance, []string{"employee_no", "date", "check_in", "check_out", "hours", "status"}},
		{DataTypeTemplate, []string{"code", "title", "category", "revision", "effective_from"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataType), func(t *testing.T) {
			s, err := SchemaFor(tt.dataType)
			if err != nil {
				t.Fatalf("SchemaFor returned error: %v", err)
			}
			if got := s.Columns(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Columns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExampleRowValidatesCleanly(t *testing.T) {
	// The scaffold row served with download templates must itself pass
	// validation, or the template teaches users the wrong format.
	v := NewValidator()

	for _, dt := range []DataType{DataTypeInspector, DataTypeAttendance, DataTypeTemplate} {
		t.Run(string(dt), func(t *testing.T) {
			s, err := SchemaFor(dt)
			if err != nil {
				t.Fatalf("SchemaFor returned error: %v", err)
			}

			result, err := v.Validate([]common_models.Row{s.ExampleRow()}, dt, common_models.BatchConfig{BatchSize: 100})
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if !result.IsValid {
				t.Errorf("example row fails its own schema: %v", result.Errors)
			}
		})
	}
}
