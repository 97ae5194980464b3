package middleware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/hospital-api/internal/model"
)

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var errorMessages = map[string]string{
	"required": "Field is required",
	"email":    "Invalid email format",
	"min":      "Value is too small",
	"max":      "Value is too large",
	"oneof":    "Value is not allowed",
	"hhmm":     "Expected a time of day as HH:MM",
	"isodate":  "Expected a date as YYYY-MM-DD",
}

// RegisterValidators installs the scheduling tags on gin's validator and
// reports fields by their JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validators := map[string]validator.Func{
		"hhmm": func(fl validator.FieldLevel) bool {
			_, err := model.ParseClockTime(fl.Field().String())
			return err == nil
		},
		"isodate": func(fl validator.FieldLevel) bool {
			_, err := model.ParseDate(fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validationDetails(errs validator.ValidationErrors) []ValidationError {
	details := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		msg := errorMessages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		details = append(details, ValidationError{Field: e.Field(), Message: msg})
	}
	return details
}
