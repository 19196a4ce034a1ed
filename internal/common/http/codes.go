package http

const (
	CodeError            = "error"
	CodeInvalid          = "invalid"
	CodeParseError       = "parse_error"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeNotFound         = "not_found"
	CodeThrottled        = "throttled"
	CodeRequestTooLarge  = "request_too_large"
)

const (
	HeaderTraceID         = "X-Trace-ID"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	BearerChallenge       = `Bearer realm="api"`
)
