// Package validation runs go-playground/validator over request DTOs using the
// same `binding` tags gin uses, and reports failures as apperrors.ValidationError.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/SscSPs/expense_ledger/internal/apperrors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
	ginOnce  sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.SetTagName("binding")
		v.RegisterTagNameFunc(wireName)
		instance = v
	})
	return instance
}

// wireName reports fields by their JSON (or query) names so errors line up with requests.
func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ConfigureGin makes gin's binding validator report the same field names as Struct.
func ConfigureGin() {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(wireName)
		}
	})
}

// Struct validates s and returns nil or a *apperrors.ValidationError.
func Struct(s any) error {
	if err := get().Struct(s); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate converts binding and decoding errors into a *apperrors.ValidationError.
// Errors it does not recognise are reported against the request body.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr
	}

	out := &apperrors.ValidationError{}
	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			out.Add(fe.Field(), message(fe))
		}
	case errors.As(err, &typeErr):
		out.Add(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type.String()))
	case errors.As(err, &syntaxErr):
		out.Add("body", "malformed JSON")
	default:
		out.Add("body", err.Error())
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
