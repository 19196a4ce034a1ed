package serializer

import (
	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

// Registration is the sign-up form. Every field must be present; names and
// email may be blank.
type Registration struct {
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Username  string `json:"username" validate:"required,max=150,username_chars"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	Password  string `json:"password" validate:"required,max_bytes=72"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// BindRegistration decodes and validates a registration payload. The
// returned FieldErrors is empty when the form is valid.
func BindRegistration(p Payload) (Registration, commonerrors.FieldErrors, error) {
	errs := commonerrors.FieldErrors{}

	var r Registration
	r.FirstName, _ = p.stringField("first_name", errs)
	r.LastName, _ = p.stringField("last_name", errs)
	r.Username, _ = p.stringField("username", errs)
	r.Email, _ = p.stringField("email", errs)
	r.Password, _ = p.stringField("password", errs)

	if err := validateStruct(r, errs); err != nil {
		return Registration{}, nil, err
	}
	return r, errs, nil
}

// BindCredentials reads username and password for token obtain. The password
// is used exactly as sent.
func BindCredentials(p Payload) (Credentials, error) {
	errs := commonerrors.FieldErrors{}

	var c Credentials
	c.Username, _ = p.stringField("username", errs)
	c.Password, _ = p.rawStringField("password", errs)

	if err := validateStruct(c, errs); err != nil {
		return Credentials{}, err
	}
	if len(errs) > 0 {
		return Credentials{}, commonerrors.NewValidationError(errs)
	}
	return c, nil
}

// BindToken reads a single required token field, "refresh" or "token".
func BindToken(p Payload, field string) (string, error) {
	errs := commonerrors.FieldErrors{}

	token, ok := p.stringField(field, errs)
	if ok && token == "" {
		errs.Add(field, msgBlank)
	}
	if len(errs) > 0 {
		return "", commonerrors.NewValidationError(errs)
	}
	return token, nil
}
