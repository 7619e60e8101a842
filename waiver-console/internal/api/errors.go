package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers everything that prevented a response from arriving:
	// refused connections, timeouts, cancelled contexts, truncated bodies.
	ErrTransport = errors.New("backend unreachable")
	// ErrStatus is matched by every *StatusError.
	ErrStatus = errors.New("backend returned an error status")
	// ErrMalformed means the response arrived but lacked the expected fields.
	ErrMalformed = errors.New("malformed backend response")
	// ErrInvalidRequest means the request was rejected before it was sent.
	ErrInvalidRequest = errors.New("invalid request")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrStatus) match any status code.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}
