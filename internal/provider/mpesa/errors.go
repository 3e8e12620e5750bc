package mpesa

import "fmt"

// RequestError is a transport-level failure: DNS, TLS handshake,
// connection reset, timeout. The request never produced an HTTP status.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("http request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError is a provider-side rejection: a non-2xx status, or a 2xx whose
// body does not match the documented response shape.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// AuthError means the OAuth credential exchange was rejected; the push
// request itself was never sent.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, e.Body)
}
