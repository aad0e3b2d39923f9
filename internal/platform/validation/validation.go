// Package validation wraps go-playground/validator with the field names,
// custom tags and error categories used across the API. The same instance
// serves as the echo.Validator and as the service-layer struct checker.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/clinic/appointments/internal/platform/apperr"
)

var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d(:[0-5]\d(\.\d+)?)?$`)

// messages by tag; %s is replaced with the tag parameter
var messages = map[string]string{
	"required":  "is required",
	"gt":        "must be greater than %s",
	"gte":       "must be at least %s",
	"max":       "must be at most %s characters",
	"oneof":     "must be one of %s",
	"uuid":      "must be a valid identifier",
	"clocktime": "must be a time of day as HH:MM or HH:MM:SS",
	"isodate":   "must be a date as YYYY-MM-DD",
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New builds a validator with the custom tags registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// decimals validate as their float value so gte/gt tags apply
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Validate satisfies echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	return cv.Struct(i)
}

// Struct validates s. Failures come back as a single *apperr.Error:
// MissingField when any required field is empty, InvalidInput otherwise.
// The message describes the first failing field.
func (cv *Validator) Struct(s interface{}) error {
	err := cv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.InvalidInput, err, "invalid request")
	}

	cat := apperr.InvalidInput
	first := verrs[0]
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			cat = apperr.MissingField
			first = fe
			break
		}
	}
	return apperr.Wrap(cat, verrs, FormatFieldError(first))
}

// MissingFields lists the fields that failed a required check in err.
func MissingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	var out []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			out = append(out, fe.Field())
		}
	}
	return out
}

// FormatFieldError renders one failure as "<field> <message>".
func FormatFieldError(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if strings.Contains(msg, "%s") {
		param := fe.Param()
		if fe.Tag() == "oneof" {
			param = strings.Join(strings.Fields(param), ", ")
		}
		msg = fmt.Sprintf(msg, param)
	}
	return fe.Field() + " " + msg
}

var std = New()

// Struct validates s with the shared validator.
func Struct(s interface{}) error {
	return std.Struct(s)
}
