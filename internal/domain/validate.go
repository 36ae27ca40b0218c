package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the task's field constraints and returns every violation
// found. An empty result means the task can be persisted.
func (t *Task) Validate() []ConstraintViolation {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ConstraintViolation{NewViolation(err.Error(), "", nil)}
	}

	violations := make([]ConstraintViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, NewViolation(violationMessage(fe), fe.Field(), plainValue(fe.Value())))
	}
	return violations
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.StructField())
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s", fe.StructField(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", fe.StructField(), fe.Tag())
	}
}

func plainValue(v any) any {
	if s, ok := v.(*string); ok {
		if s == nil {
			return nil
		}
		return *s
	}
	return v
}
