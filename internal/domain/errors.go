package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("notification not found")
	ErrDuplicateExternalID = errors.New("externalId already exists")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated constraint of a payload.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, f := range e.Fields {
		b.WriteString(" ")
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
		b.WriteString(";")
	}
	return strings.TrimSuffix(b.String(), ";")
}
