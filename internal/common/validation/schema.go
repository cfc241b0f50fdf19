// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"
)

// JSONSchema describes the expected shape of an inbound request body.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes a single field's constraints.
type Property struct {
	Type      string   `json:"type"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Items     *Property `json:"items,omitempty"`
}

// ValidationResult holds the outcome of validating an input payload.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ErrorString joins the collected validation errors.
func (r ValidationResult) ErrorString() string {
	return strings.Join(r.Errors, "; ")
}

// ValidateInput validates a decoded JSON object against the schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) ValidationResult {
	result := ValidationResult{Valid: true}

	for _, required := range schema.Required {
		value, exists := input[required]
		if !exists || value == nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("missing required field: %s", required))
		}
	}

	for name, prop := range schema.Properties {
		value, exists := input[name]
		if !exists || value == nil {
			continue
		}
		if errs := validateProperty(name, value, prop); len(errs) > 0 {
			result.Valid = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	return result
}

func validateProperty(name string, value interface{}, prop Property) []string {
	var errs []string

	switch prop.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("field %s must be a string", name)}
		}
		if prop.MinLength > 0 && len(str) < prop.MinLength {
			errs = append(errs, fmt.Sprintf("field %s must be at least %d characters", name, prop.MinLength))
		}
		if prop.MaxLength > 0 && len(str) > prop.MaxLength {
			errs = append(errs, fmt.Sprintf("field %s must be at most %d characters", name, prop.MaxLength))
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, str) {
			errs = append(errs, fmt.Sprintf("field %s must be one of: %s", name, strings.Join(prop.Enum, ", ")))
		}
	case "number":
		num, ok := value.(float64)
		if !ok {
			return []string{fmt.Sprintf("field %s must be a number", name)}
		}
		if prop.Minimum != nil && num < *prop.Minimum {
			errs = append(errs, fmt.Sprintf("field %s must be >= %g", name, *prop.Minimum))
		}
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return []string{fmt.Sprintf("field %s must be an array", name)}
		}
		if prop.Items != nil {
			for i, item := range arr {
				errs = append(errs, validateProperty(fmt.Sprintf("%s[%d]", name, i), item, *prop.Items)...)
			}
		}
	}

	return errs
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
