package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCSVRendering(t *testing.T) {
	e := NewExporter()

	certified := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := []map[string]interface{}{
		{"employee_no": "E001", "name": "Asha", "hours": 8.5, "certified_at": certified},
		{"employee_no": "E002", "name": "Noor"},
	}

	blob, filename, err := e.CSV("inspector_export", []string{"employee_no", "name", "hours", "certified_at"}, rows)
	if err != nil {
		t.Fatalf("CSV returned error: %v", err)
	}
	if filename != "inspector_export.csv" {
		t.Errorf("filename = %q, want inspector_export.csv", filename)
	}

	records, err := csv.NewReader(bytes.NewReader(blob)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	want := [][]string{
		{"employee_no", "name", "hours", "certified_at"},
		{"E001", "Asha", "8.5", "2025-03-14 00:00:00"},
		{"E002", "Noor", "", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestRenderDispatch(t *testing.T) {
	e := NewExporter()
	rows := []map[string]interface{}{{"a": "1"}}

	tests := []struct {
		format     string
		wantSuffix string
	}{
		{"csv", ".csv"},
		{"CSV", ".csv"},
		{"xlsx", ".xlsx"},
		{"", ".xlsx"},
		{"unknown", ".xlsx"},
	}

	for _, tt := range tests {
		blob, filename, err := e.Render(tt.format, "out", []string{"a"}, rows)
		if err != nil {
			t.Errorf("Render(%q) returned error: %v", tt.format, err)
			continue
		}
		if !strings.HasSuffix(filename, tt.wantSuffix) {
			t.Errorf("Render(%q) filename = %q, want suffix %s", tt.format, filename, tt.wantSuffix)
		}
		if len(blob) == 0 {
			t.Errorf("Render(%q) produced an empty blob", tt.format)
		}
	}
}

func TestExcelRendering(t *testing.T) {
	e := NewExporter()

	rows := []map[string]interface{}{
		{"code": "T-100", "title": "Pressure check"},
	}

	blob, filename, err := e.Excel("template_export", []string{"code", "title"}, rows)
	if err != nil {
		t.Fatalf("Excel returned error: %v", err)
	}
	if filename != "template_export.xlsx" {
		t.Errorf("filename = %q, want template_export.xlsx", filename)
	}

	// xlsx is a zip container
	if len(blob) < 4 || blob[0] != 'P' || blob[1] != 'K' {
		t.Error("output does not look like an xlsx file")
	}
}
