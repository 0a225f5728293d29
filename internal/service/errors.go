package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrSurveyNotFound = errors.New("survey not found")

// FieldError describes one failed field rule
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned for client input that cannot be accepted
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func invalid(field, rule, message string) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: []FieldError{{Field: field, Rule: rule, Message: message}},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and converts failures to a ValidationError
func validateStruct(v interface{}, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Message: message}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out.Details = append(out.Details, FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: ruleMessage(field, fe),
		})
	}
	return out
}

// fieldPath drops the root struct name: "Survey.questions[0].type" -> "questions[0].type"
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed rule %s", field, fe.Tag())
	}
}
