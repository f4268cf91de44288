package services

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate    = newValidator()
	stripPolicy = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})
	return v
}

// cleanText убирает HTML-разметку и крайние пробелы
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateStruct(s any) error {
	return describe("", validate.Struct(s))
}

// validateVar проверяет одно поле; name подставляется в сообщение
func validateVar(name string, value any, tag string) error {
	return describe(name, validate.Var(value, tag))
}

func describe(name string, err error) error {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	first := errs[0]
	if name == "" {
		name = strings.ToLower(first.Field())
	}
	switch first.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidation, name)
	case "email":
		return fmt.Errorf("%w: email is invalid", ErrValidation)
	case "min":
		return fmt.Errorf("%w: %s is too short", ErrValidation, name)
	case "gte":
		return fmt.Errorf("%w: %s must be a positive number", ErrValidation, name)
	case "nopassword":
		return fmt.Errorf("%w: password cannot contain \"password\"", ErrValidation)
	default:
		return fmt.Errorf("%w: invalid %s", ErrValidation, name)
	}
}
