package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// validate reports field errors under their JSON names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// normalizeKey folds user-supplied identifiers (emails, search terms) so
// lookups are case-insensitive. A Caser is stateful, so one is built per call.
func normalizeKey(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// validateStruct runs the struct tags of v and converts failures into a
// ValidationError keyed by JSON field name.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fe := fieldErrors{}
	for _, e := range ves {
		fe.add(e.Field(), describe(e))
	}
	return fe.err()
}

func describe(e validator.FieldError) string {
	kind := e.Kind()
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", e.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at least %s item(s)", e.Param())
		default:
			return fmt.Sprintf("must be at least %s", e.Param())
		}
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", e.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at most %s item(s)", e.Param())
		default:
			return fmt.Sprintf("must be at most %s", e.Param())
		}
	}
	return "is invalid"
}
