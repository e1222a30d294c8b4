package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	common_models "go-inspect/internal/common/models"

	"github.com/d5/tengo/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	time.RFC3339,
}

// Validator checks decoded row sets against a data-type schema. It is a pure
// function of its inputs: no writes, no lookups, deterministic output.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every row independently and collects all findings in one
// pass. A row with one or more errors is excluded from ValidData; clean rows
// are kept even when the rest of the file fails. Row numbers are 1-based
// positions in the original decoded set.
func (v *Validator) Validate(rows []common_models.Row, dataType DataType, cfg common_models.BatchConfig) (*ValidationResult, error) {
	s, err := SchemaFor(dataType)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Errors:     []ValidationError{},
		ValidData:  []common_models.Row{},
		RowNumbers: []int{},
	}

	for i, row := range rows {
		if cfg.SkipFirstRow && i == 0 {
			continue
		}
		rowNum := i + 1
		result.TotalRows++

		coerced := make(common_models.Row, len(s.Fields))
		rowOK := true

		for _, field := range s.Fields {
			raw, present := row[field.Name]
			if !present || isEmpty(raw) {
				if field.Required {
					result.Errors = append(result.Errors, ValidationError{
						Row:     rowNum,
						Field:   field.Name,
						Message: fmt.Sprintf("%s is required", field.Label),
					})
					rowOK = false
				}
				continue
			}

			value, cerr := coerce(raw, field)
			if cerr != nil {
				result.Errors = append(result.Errors, ValidationError{
					Row:     rowNum,
					Field:   field.Name,
					Message: cerr.Error(),
					Value:   raw,
				})
				rowOK = false
				continue
			}

			if field.Rule != "" {
				ok, rerr := evalRule(field.Rule, value)
				if rerr != nil {
					result.Errors = append(result.Errors, ValidationError{
						Row:     rowNum,
						Field:   field.Name,
						Message: fmt.Sprintf("rule evaluation failed: %v", rerr),
						Value:   raw,
					})
					rowOK = false
					continue
				}
				if !ok {
					result.Errors = append(result.Errors, ValidationError{
						Row:     rowNum,
						Field:   field.Name,
						Message: fmt.Sprintf("%s violates constraint %q", field.Label, field.Rule),
						Value:   raw,
					})
					rowOK = false
					continue
				}
			}

			coerced[field.Name] = value
		}

		if rowOK {
			result.ValidData = append(result.ValidData, coerced)
			result.RowNumbers = append(result.RowNumbers, rowNum)
		}
	}

	result.ValidRows = len(result.ValidData)
	result.IsValid = len(result.Errors) == 0

	return result, nil
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerce(raw interface{}, field common_models.SchemaField) (interface{}, error) {
	switch field.Type {
	case common_models.FieldTypeText:
		return stringify(raw), nil

	case common_models.FieldTypeNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", field.Label)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%s must be a number", field.Label)

	case common_models.FieldTypeBoolean:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "yes", "1":
				return true, nil
			case "false", "no", "0":
				return false, nil
			}
		}
		return nil, fmt.Errorf("%s must be a boolean", field.Label)

	case common_models.FieldTypeDate:
		switch d := raw.(type) {
		case time.Time:
			return d, nil
		case string:
			trimmed := strings.TrimSpace(d)
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, trimmed); err == nil {
					return t, nil
				}
			}
		}
		return nil, fmt.Errorf("%s must be a date (e.g. 2006-01-02)", field.Label)

	case common_models.FieldTypeSelect:
		val := strings.TrimSpace(stringify(raw))
		for _, opt := range field.Options {
			if strings.EqualFold(val, opt.Value) {
				return opt.Value, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of %s", field.Label, optionValues(field.Options))

	case common_models.FieldTypeEmail:
		val := strings.TrimSpace(stringify(raw))
		at := strings.Index(val, "@")
		if at <= 0 || at == len(val)-1 || !strings.Contains(val[at+1:], ".") {
			return nil, fmt.Errorf("%s must be a valid email address", field.Label)
		}
		return val, nil
	}

	return nil, fmt.Errorf("unsupported field type %q", field.Type)
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("%v", v)
}

func optionValues(options []common_models.SelectOption) string {
	values := make([]string, len(options))
	for i, opt := range options {
		values[i] = opt.Value
	}
	return strings.Join(values, ", ")
}

// evalRule runs a schema constraint expression with `value` bound to the
// coerced cell value. The expression must yield a boolean.
func evalRule(rule string, value interface{}) (bool, error) {
	script := tengo.NewScript([]byte("ok := " + rule))

	if err := script.Add("value", value); err != nil {
		return false, err
	}

	compiled, err := script.Compile()
	if err != nil {
		return false, fmt.Errorf("failed to compile rule: %w", err)
	}

	if err := compiled.Run(); err != nil {
		return false, fmt.Errorf("failed to run rule: %w", err)
	}

	return compiled.Get("ok").Bool(), nil
}
