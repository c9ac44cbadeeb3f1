package views

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps form input names to a message. No request leaves the server while one is pending.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// inputNames covers struct fields whose input name is not just the lower-cased field name.
var inputNames = map[string]string{
	"ApplicationID": "application_id",
}

// NewValidationError converts a binding failure into a ValidationError. Other errors are returned unchanged.
func NewValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[inputName(fe.Field())] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func inputName(field string) string {
	if name, ok := inputNames[field]; ok {
		return name
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "datetime":
		return "Use the YYYY-MM-DD format"
	case "oneof":
		return "Choose one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "Enter a valid email address"
	case "e164":
		return "Use the international format, e.g. +15551234567"
	default:
		return "Invalid value"
	}
}
