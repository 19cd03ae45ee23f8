package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports fields by their json name.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	fieldErrors := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fieldErrors
	}

	for _, e := range validationErrors {
		field := e.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		switch e.Tag() {
		case "required":
			fieldErrors[field] = field + " is required"
		case "email":
			fieldErrors[field] = field + " must be a valid email address"
		case "min":
			fieldErrors[field] = field + " must be at least " + e.Param() + " characters"
		case "max":
			fieldErrors[field] = field + " must be at most " + e.Param() + " characters"
		case "oneof":
			fieldErrors[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
		case "datetime":
			fieldErrors[field] = field + " must match the format " + e.Param()
		default:
			fieldErrors[field] = field + " is invalid"
		}
	}

	return fieldErrors
}
