// utils/validation.go
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"solarops-backend/apperrors"
)

var indianMobile = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidateMobile accepts a 10 digit Indian mobile number, optionally prefixed
// with +91 or 0.
func ValidateMobile(mobile string) bool {
	return indianMobile.MatchString(NormalizeMobile(mobile))
}

// NormalizeMobile strips separators and the country/trunk prefix so that the
// same number always compares equal.
func NormalizeMobile(mobile string) string {
	cleaned := cleanPhone(mobile)
	cleaned = strings.TrimPrefix(cleaned, "+91")
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "0") {
		cleaned = cleaned[1:]
	}
	return cleaned
}

func cleanPhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// RegisterValidators adds the custom tags used by request payloads to v and
// reports fields by their json name.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	return v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidateMobile(fl.Field().String())
	})
}

// jsonFieldName returns "" for untagged fields, which keeps the Go name.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// SetupBindingValidators registers the custom tags on gin's binding engine.
func SetupBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return RegisterValidators(v)
}

// BindJSON binds and validates the request body, returning a classified
// validation error with per-field messages on failure.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("Invalid input", FieldErrors(err)...)
	}
	return nil
}

// FieldErrors converts binding failures into {field, message} pairs.
func FieldErrors(err error) []apperrors.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, apperrors.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []apperrors.FieldError{{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()}}
	}

	return []apperrors.FieldError{{Field: "body", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "mobile":
		return "must be a valid 10 digit mobile number"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}
