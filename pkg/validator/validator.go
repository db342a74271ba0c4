package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var vehicleNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]*$`)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports fields by their JSON names and registers the booking
// rules: date (YYYY-MM-DD), clock (HH:MM) and vehicle_number.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("date", layoutRule("2006-01-02"))
	_ = v.RegisterValidation("clock", layoutRule("15:04"))
	_ = v.RegisterValidation("vehicle_number", func(fl validator.FieldLevel) bool {
		return vehicleNumberPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	return &CustomValidator{validator: v}
}

func layoutRule(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "clock":
				errors[field] = field + " must be a time in HH:MM format"
			case "vehicle_number":
				errors[field] = field + " may contain only letters, digits, spaces and hyphens"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
