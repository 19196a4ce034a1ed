package serializer

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

var usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("max_bytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	return v
}

// validateStruct runs tag validation and appends one message per failing
// field. Fields that already failed decoding are skipped.
func validateStruct(s any, errs commonerrors.FieldErrors) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate %T: %w", s, err)
	}

	for _, fe := range verrs {
		field := fe.Field()
		if errs.Has(field) {
			continue
		}
		errs.Add(field, messageFor(fe))
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgBlank
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	case "max_bytes":
		return fmt.Sprintf(msgMaxBytes, fe.Param())
	case "email":
		return msgInvalidEmail
	case "username_chars":
		return msgUsername
	default:
		return "Invalid value."
	}
}
