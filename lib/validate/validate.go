package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"eventreg/lib/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

// RegisterValidation adds a custom tag; call during package init only.
func RegisterValidation(tag string, fn validator.Func) {
	if err := get().RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Struct validates a single struct object; failures carry the validation_error code
func Struct(s interface{}) error {
	if s == nil {
		return apperr.New(apperr.CodeValidation, "is nil")
	}
	if !isStruct(s) {
		return apperr.New(apperr.CodeValidation, "not a struct")
	}
	var validationErrors validator.ValidationErrors
	var invalidValidationError *validator.InvalidValidationError

	err := get().Struct(s)
	if err == nil {
		return nil
	}

	if errors.As(err, &validationErrors) {
		message := ""
		fields := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			if len(message) > 0 {
				message += "; "
			}
			message += fmt.Sprintf("%s %s", fieldErr.Field(), fieldErr.Tag())
			fields = append(fields, fieldErr.Field())
		}
		return apperr.New(apperr.CodeValidation, message).WithMeta("fields", strings.Join(fields, ","))
	} else if errors.As(err, &invalidValidationError) {
		return fmt.Errorf("invalid validation error: %w", err)
	} else {
		return fmt.Errorf("unknown validation error: %w", err)
	}
}

func isStruct(s interface{}) bool {
	r := reflect.TypeOf(s)
	if r.Kind() == reflect.Ptr {
		r = r.Elem()
	}
	return r.Kind() == reflect.Struct
}
