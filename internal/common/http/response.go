package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	commonerrors "github.com/AlibekovAA/jwt-auth/internal/common/errors"
)

type ErrorEnvelope struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set(HeaderWWWAuthenticate, BearerChallenge)
	}
	WriteJSON(w, status, ErrorEnvelope{Detail: detail, Code: code})
}

func WriteDomainError(w http.ResponseWriter, err commonerrors.DomainError) {
	WriteError(w, err.HTTPStatus(), err.Code(), err.Message())
}

var errTrailingData = errors.New("unexpected data after JSON value")

// DecodeJSON reads the request body into v. An empty body decodes as an
// empty object. Malformed JSON or anything after the first value maps to
// ErrParseError and oversized bodies to ErrRequestTooLarge.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return json.Unmarshal([]byte("{}"), v)
	}
	if err == nil {
		_, err = dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err == nil {
			err = errTrailingData
		}
	}

	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		return commonerrors.ErrRequestTooLarge.WithCause(err)
	case errors.As(err, &typeErr):
		return err
	default:
		return commonerrors.ErrParseError.WithCause(err)
	}
}

// GetClientIP keys clients by the connection's remote address. Proxy headers
// are honoured only after a trusted middleware rewrote RemoteAddr from them.
func GetClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
