package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// DecodeJSON decodes the request body into dst and runs struct validation.
// Failures are returned as 400 AppErrors whose details map field to rule.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return BadRequest("invalid payload", errors.New("empty body"))
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return BadRequest("invalid payload", err)
	}
	return Validate(dst)
}

// Validate runs struct validation on v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return BadRequest("invalid payload", err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	appErr := BadRequest(describe(verrs[0]), err)
	appErr.Details = details
	return appErr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "required_if":
		return fmt.Sprintf("%s is required for this rule type", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
