// Package echovalidator sets up github.com/go-playground/validator/v10 as
// the request validator for the Echo web framework
// (github.com/labstack/echo/v4). Validation failures become 400 responses
// naming the offending JSON fields.
package echovalidator

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator holds an instance of the go-playground validator
type CustomValidator struct {
	validator *validator.Validate
}

// New creates a CustomValidator that reports fields by their JSON names
func New() *CustomValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator. A failing struct yields an HTTPError
// with status 400 and a message like "text: required; kind: oneof".
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		msgs = append(msgs, fe.Field()+": "+fe.Tag())
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
}

// Validator returns the underlying validator.Validate instance for
// registering custom validations
func (cv *CustomValidator) Validator() *validator.Validate {
	return cv.validator
}

// Setup registers a new CustomValidator with the provided Echo app
func Setup(e *echo.Echo) {
	if e == nil {
		panic("echovalidator.Setup: received nil Echo instance")
	}
	e.Validator = New()
}
