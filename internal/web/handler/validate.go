package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator reporting fields by their form tag name.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	return v
}

// FieldErrors maps each failing field to a short human readable message.
// Errors that are not validation errors yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "This field is required."
		case "email":
			out[fe.Field()] = "Please enter a valid email address."
		case "url":
			out[fe.Field()] = "Please enter a valid URL."
		case "max":
			out[fe.Field()] = "Must be at most " + fe.Param() + " characters."
		case "min":
			out[fe.Field()] = "Must be at least " + fe.Param() + "."
		case "len":
			out[fe.Field()] = "Must be exactly " + fe.Param() + " characters."
		default:
			out[fe.Field()] = "Invalid value."
		}
	}

	return out
}
