package record

import (
	"reflect"
	"testing"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/features/schema"

	"go.mongodb.org/mongo-driver/bson"
)

func TestKeyFilter(t *testing.T) {
	inspector, _ := schema.SchemaFor(schema.DataTypeInspector)
	attendance, _ := schema.SchemaFor(schema.DataTypeAttendance)

	tests := []struct {
		name    string
		schema  *schema.Schema
		row     common_models.Row
		want    bson.M
		wantErr bool
	}{
		{
			name:   "single key field",
			schema: inspector,
			row:    common_models.Row{"employee_no": "E001", "name": "Asha"},
			want:   bson.M{"employee_no": "E001"},
		},
		{
			name:   "composite key",
			schema: attendance,
			row:    common_models.Row{"employee_no": "E001", "date": "2025-06-01", "status": "present"},
			want:   bson.M{"employee_no": "E001", "date": "2025-06-01"},
		},
		{
			name:    "missing key field",
			schema:  attendance,
			row:     common_models.Row{"employee_no": "E001"},
			wantErr: true,
		},
		{
			name:    "nil key field",
			schema:  inspector,
			row:     common_models.Row{"employee_no": nil},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyFilter(tt.schema, tt.row)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keyFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}
