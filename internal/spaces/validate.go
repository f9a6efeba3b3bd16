package spaces

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("payload", func(fl validator.FieldLevel) bool {
			b, ok := fl.Field().Interface().(json.RawMessage)
			return ok && !isEmptyPayload(b)
		})
	})
	return validate
}

// validateStruct reports the first failing field of s as a *ValidationError
func validateStruct(s any) error {
	err := v().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}

	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Field: strings.Join(fields, ", "), Message: "is required"}
}

func requireSpaceID(spaceID string) error {
	if strings.TrimSpace(spaceID) == "" {
		return &ValidationError{Field: "space_id", Message: "is required"}
	}
	return nil
}
