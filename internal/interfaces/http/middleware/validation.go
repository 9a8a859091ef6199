package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ipagency/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's binding validator. Field names in error
// details come from the json/form tags, and decimal amounts are exposed to
// the numeric validation tags (gt, gte, lt, lte) as float64.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// FormatValidationErrors turns validator errors into the standard response
// envelope with per-field details. Non-validator errors get a single
// message without details.
func FormatValidationErrors(err error) dto.Response {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return dto.NewErrorResponse(dto.ErrCodeValidation, err.Error())
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", details)
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		if e.Type().Kind() == reflect.String || e.Type().Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String || e.Type().Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
