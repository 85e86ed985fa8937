package fetch

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when a response body exceeds the client's MaxBytes.
var ErrTooLarge = errors.New("resource exceeds size limit")

// StatusError represents a non-2xx response from a resource endpoint.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("fetch %s: status=%d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetch %s: status=%d", e.URL, e.StatusCode)
}

// NotFoundError indicates the resource does not exist (404 or missing file).
type NotFoundError struct {
	Location string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Location)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// UnreachableError indicates the endpoint could not be contacted at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
