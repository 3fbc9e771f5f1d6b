package model

import (
	"fmt"
	"strings"
)

// FieldViolation names one invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of an input record, not just
// the first one found.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "invalid case: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, code, format string, args ...any) {
	e.Violations = append(e.Violations, FieldViolation{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// NotFoundError is returned when no parameter table row exists for a key.
type NotFoundError struct {
	Year      int
	Region    string
	Residency Residency
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no parameter table for year %d, region %q, residency %q", e.Year, e.Region, e.Residency)
}

// ComputationError reports a violated calculator precondition.
type ComputationError struct {
	Category Category
	Field    string
	Reason   string
}

func (e *ComputationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Category, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Reason)
}

// RenderError reports a result that cannot be projected into a document.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return "render: " + e.Reason + ": " + e.Err.Error()
	}
	return "render: " + e.Reason
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
