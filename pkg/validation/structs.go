package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report yaml/json names rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"yaml", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// Struct validates v against its `validate` tags and returns ValidationErrors
// (or nil).
func Struct(v any) error {
	errs := structErrors(v)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func structErrors(v any) ValidationErrors {
	if v == nil {
		return ValidationErrors{NewError("input").Reason("cannot be nil").Build()}
	}
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{NewError("input").Reason("%v", err).Build()}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{
			Field:  fieldPath(fe.Namespace()),
			Value:  fe.Value(),
			Reason: describeTag(fe.Tag(), fe.Param()),
		})
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "field is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "lte", "max":
		return fmt.Sprintf("must not exceed %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", param)
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", param)
	case "dive":
		return "invalid element"
	default:
		return fmt.Sprintf("validation failed (%s)", tag)
	}
}
