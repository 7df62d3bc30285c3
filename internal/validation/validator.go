// Package validation wraps go-playground/validator with the field names and
// messages the API reports.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	colorPattern    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Errors maps a JSON field name to its messages.
type Errors map[string][]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the username, tagcolor and slug tags registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "username", usernamePattern)
	mustRegister(v, "tagcolor", colorPattern)
	mustRegister(v, "slug", slugPattern)

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Validate validates a struct and returns Errors on failure.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	out := Errors{}
	for _, e := range validationErrs {
		out[e.Field()] = append(out[e.Field()], friendlyMessage(e))
	}
	return out
}

// ValidColor reports whether s is a #RGB or #RRGGBB color.
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Обязательное поле."
	case "email":
		return "Введите правильный адрес электронной почты."
	case "min":
		return fmt.Sprintf("Убедитесь, что это значение содержит не менее %s символов.", e.Param())
	case "max":
		return fmt.Sprintf("Убедитесь, что это значение содержит не более %s символов.", e.Param())
	case "username":
		return "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_."
	case "tagcolor":
		return "Введите корректный HEX-код цвета."
	case "slug":
		return "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."
	default:
		return "Некорректное значение."
	}
}
