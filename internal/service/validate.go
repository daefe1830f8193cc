package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"LinkHub_Backend/internal/apperr"
)

func init() {
	// report json names (links[1].url) instead of Go field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// validate runs the binding rules of v, the same ones gin applies in ShouldBindJSON.
func validate(v any) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return InvalidInput(err)
	}
	return nil
}

// InvalidInput turns a binding validation failure into a Validation error naming the first bad field.
// Anything that is not a validator error (malformed JSON) becomes a generic "Invalid request".
func InvalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.NewValidation("Invalid request")
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return apperr.NewValidation(fmt.Sprintf("%s is required", field))
	case "required_without":
		return apperr.NewValidation("Email or username and password are required")
	case "email":
		return apperr.NewValidation(fmt.Sprintf("%s must be a valid email", field))
	case "url":
		return apperr.NewValidation(fmt.Sprintf("%s must be a valid URL", field))
	case "min":
		if fe.Kind() == reflect.String {
			return apperr.NewValidation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		}
		return apperr.NewValidation(fmt.Sprintf("%s cannot be less than %s", field, fe.Param()))
	default:
		return apperr.NewValidation(fmt.Sprintf("%s is invalid", field))
	}
}
