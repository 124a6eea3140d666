package validators

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sbpremium/gifts-backend/internal/gifts"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
		return gifts.IsUserID(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := enums.ParseDuration(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("target", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return gifts.IsUserID(value) || gifts.IsEveryone(value)
	})
	return v
}

// DecodeJSONBody decodes and validates a request body. Unknown fields are
// ignored because bot builds send extra keys.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return ValidateStruct(dest)
}

// ValidateStruct runs the tag rules against an already populated value.
func ValidateStruct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "snowflake":
		return "must be a numeric user id"
	case "target":
		return "must be a user id or \"all\""
	case "duration":
		return fmt.Sprintf("must be one of %v", enums.Durations())
	}
	return "is invalid"
}
