package model

import (
	"strings"
	"time"
)

// Field is one column assignment of an insert or a partial update.
type Field struct {
	Column string
	Value  any
}

// FieldError reports an input field that is missing or malformed.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason + ": " + e.Field
}

func missingField(name string) *FieldError {
	return &FieldError{Field: name, Reason: "missing required field"}
}

func invalidField(name string, reason string) *FieldError {
	return &FieldError{Field: name, Reason: reason}
}

func addField[T any](fields []Field, column string, v *T) []Field {
	if v == nil {
		return fields
	}
	return append(fields, Field{Column: column, Value: *v})
}

type requirement struct {
	name    string
	present bool
}

// firstMissing returns the first requirement that is not met, in declaration order.
func firstMissing(reqs ...requirement) error {
	for _, req := range reqs {
		if !req.present {
			return missingField(req.name)
		}
	}
	return nil
}

// firstBlank rejects required text columns that a partial update tries to empty.
func firstBlank(values map[string]*string, order ...string) error {
	for _, name := range order {
		if v := values[name]; v != nil && strings.TrimSpace(*v) == "" {
			return invalidField(name, "field must not be empty")
		}
	}
	return nil
}

func hasText(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

func hasID(v *int64) bool {
	return v != nil && *v > 0
}

func hasDate(v *Date) bool {
	return v != nil && !v.IsZero()
}

func hasTime(v *time.Time) bool {
	return v != nil && !v.IsZero()
}

func validID(name string, v *int64) error {
	if v != nil && *v <= 0 {
		return invalidField(name, "must be a positive id")
	}
	return nil
}
