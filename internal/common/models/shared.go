package models

import "time"

// Row is one decoded spreadsheet row: column name -> raw cell value.
type Row = map[string]interface{}

// Field Definitions
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeSelect  FieldType = "select"
	FieldTypeEmail   FieldType = "email"
)

type SelectOption struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// SchemaField describes one column of a bulk data type.
// Rule is an optional tengo expression over `value`; it must evaluate to true
// for the cell to pass domain validation.
type SchemaField struct {
	Name     string         `json:"name" bson:"name"`
	Label    string         `json:"label" bson:"label"`
	Type     FieldType      `json:"type" bson:"type"`
	Required bool           `json:"required" bson:"required"`
	Options  []SelectOption `json:"options,omitempty" bson:"options,omitempty"`
	Rule     string         `json:"rule,omitempty" bson:"rule,omitempty"`
	Example  string         `json:"example,omitempty" bson:"example,omitempty"`
}

// BatchConfig is the per-submission configuration. It is built once at the
// boundary and passed by value; nothing mutates it afterwards.
type BatchConfig struct {
	SkipFirstRow   bool `json:"skip_first_row" bson:"skip_first_row"`
	UpdateExisting bool `json:"update_existing" bson:"update_existing"`
	ValidateOnly   bool `json:"validate_only" bson:"validate_only"`
	BatchSize      int  `json:"batch_size" bson:"batch_size"`
}

// Normalize clamps BatchSize to a sane value.
func (c BatchConfig) Normalize(fallback int) BatchConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = fallback
	}
	return c
}

// Pagination is the envelope returned alongside every paged listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Log is the document shape written by the async log sink.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	OperationId  string    `bson:"operation_id,omitempty" json:"operation_id,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	Caller       string    `bson:"caller" json:"caller"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
