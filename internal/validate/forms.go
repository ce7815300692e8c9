package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to a user-facing message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has one.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns nil for an empty set so callers can return it as an error.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extracts field errors from err, if any.
func AsErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	_ = val.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		_, ok := Mobile(fl.Field().String())
		return ok
	})
	_ = val.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return WebURL(fl.Field().String())
	})
	_ = val.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, ok := Price(fl.Field().String())
		return ok
	})
	return val
}

// Struct runs the `validate` tags on s and converts failures to Errors keyed
// by the `form` tag name.
func Struct(s any) Errors {
	out := Errors{}
	err := v.Struct(s)
	if err == nil {
		return out
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		out.Add("form", "Invalid input.")
		return out
	}
	for _, fe := range ves {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return "Select a valid choice."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "password":
		return "Password must be 8-72 characters and contain a letter and a digit."
	case "mobile":
		return "Enter a valid mobile number."
	case "weburl":
		return "Enter a valid http(s) URL."
	case "price":
		return "Enter a positive price with at most two decimals."
	case "gt":
		return "Select a valid choice."
	}
	return "Invalid value."
}
