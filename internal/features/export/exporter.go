package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Exporter renders tabular data into downloadable spreadsheet blobs.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Render dispatches on format; xlsx is the default.
func (e *Exporter) Render(format string, filename string, columns []string, rows []map[string]interface{}) ([]byte, string, error) {
	if strings.EqualFold(format, FormatCSV) {
		return e.CSV(filename, columns, rows)
	}
	return e.Excel(filename, columns, rows)
}

func (e *Exporter) Excel(filename string, columns []string, rows []map[string]interface{}) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)

	if len(columns) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, record := range rows {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, cellValue(record[col]))
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 15)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	xlsxFilename := filename
	if !strings.HasSuffix(xlsxFilename, ".xlsx") {
		xlsxFilename += ".xlsx"
	}

	return buffer.Bytes(), xlsxFilename, nil
}

func (e *Exporter) CSV(filename string, columns []string, rows []map[string]interface{}) ([]byte, string, error) {
	if len(columns) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, "", err
	}

	for _, record := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = stringValue(record[col])
		}
		if err := w.Write(line); err != nil {
			return nil, "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	csvFilename := filename
	if !strings.HasSuffix(csvFilename, ".csv") {
		csvFilename += ".csv"
	}

	return buf.Bytes(), csvFilename, nil
}

func cellValue(val interface{}) interface{} {
	switch v := val.(type) {
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().Format("2006-01-02 15:04:05")
	case map[string]interface{}:
		return fmt.Sprintf("%v", v)
	default:
		return v
	}
}

func stringValue(val interface{}) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}
