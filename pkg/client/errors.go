package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any *HTTPError with status 404 via errors.Is
var ErrNotFound = errors.New("not found")

// TransportError is returned when the request never produced a response
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a response the backend rejected, either with a non-2xx
// status or with a failing code inside the response envelope.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ShapeError is a successful response whose body does not have the
// expected form.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", e.Path, e.Reason)
}

// IsNotFound reports whether err is, or wraps, a 404 from the backend
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
