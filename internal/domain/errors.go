package domain

import (
	"fmt"
	"strings"
)

// FieldError is a single failed form rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects the failed rules of one form submission.
type ValidationError struct {
	Fields []FieldError
}

// Add records a failed rule.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no rule failed.
func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// For returns the message recorded for field, if any.
func (v *ValidationError) For(field string) string {
	for _, f := range v.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func (v *ValidationError) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
