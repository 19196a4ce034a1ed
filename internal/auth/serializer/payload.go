package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/jwt-auth/internal/common/http"
)

const NonFieldErrors = "non_field_errors"

const (
	msgRequired     = "This field is required."
	msgNull         = "This field may not be null."
	msgNullChars    = "Null characters are not allowed."
	msgNotString    = "Not a valid string."
	msgBlank        = "This field may not be blank."
	msgNoData       = "No data provided"
	msgInvalidEmail = "Enter a valid email address."
	msgUsername     = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgMaxLength    = "Ensure this field has no more than %s characters."
	msgMaxBytes     = "Ensure this field has no more than %s bytes."
	msgInvalidData  = "Invalid data. Expected a dictionary, but got %s."
)

// Payload is a decoded JSON object whose values are parsed per field.
type Payload map[string]json.RawMessage

// DecodePayload reads the request body as a JSON object. A body that is
// valid JSON but not an object is reported as a non-field validation error.
func DecodePayload(r *http.Request) (Payload, error) {
	var p Payload
	err := commonhttp.DecodeJSON(r, &p)

	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil && p == nil:
		return nil, invalidPayload(msgNoData)
	case err == nil:
		return p, nil
	case errors.As(err, &typeErr):
		return nil, invalidPayload(fmt.Sprintf(msgInvalidData, jsonTypeName(typeErr.Value)))
	default:
		return nil, err
	}
}

// NewPayload builds a payload from plain Go values.
func NewPayload(values map[string]any) (Payload, error) {
	p := make(Payload, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		p[k] = raw
	}
	return p, nil
}

func invalidPayload(message string) error {
	errs := commonerrors.FieldErrors{}
	errs.Add(NonFieldErrors, message)
	return commonerrors.NewValidationError(errs)
}

func jsonTypeName(value string) string {
	switch value {
	case "array":
		return "list"
	case "string":
		return "str"
	case "number":
		return "int"
	case "bool":
		return "bool"
	default:
		return value
	}
}

// stringField extracts a trimmed string. Numbers are accepted in their
// literal form. Problems are recorded in errs and reported with ok=false.
func (p Payload) stringField(name string, errs commonerrors.FieldErrors) (value string, ok bool) {
	return p.field(name, errs, true)
}

// rawStringField is stringField without whitespace trimming.
func (p Payload) rawStringField(name string, errs commonerrors.FieldErrors) (value string, ok bool) {
	return p.field(name, errs, false)
}

func (p Payload) field(name string, errs commonerrors.FieldErrors, trim bool) (value string, ok bool) {
	raw, present := p[name]
	if !present {
		errs.Add(name, msgRequired)
		return "", false
	}

	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		errs.Add(name, msgNull)
		return "", false
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			errs.Add(name, msgNotString)
			return "", false
		}
		if strings.ContainsRune(s, 0) {
			errs.Add(name, msgNullChars)
			return "", false
		}
		if trim {
			s = strings.TrimSpace(s)
		}
		return s, true
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			errs.Add(name, msgNotString)
			return "", false
		}
		return n.String(), true
	default:
		errs.Add(name, msgNotString)
		return "", false
	}
}
