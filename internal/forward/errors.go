package forward

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates the backend could not be reached at all.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrBadRequest indicates the request body cannot be adapted for the backend.
var ErrBadRequest = errors.New("invalid request body")

// BackendError is a non-2xx answer from a backend.
// Detail is the backend's "detail" value, any JSON value, or its raw text body.
type BackendError struct {
	Service string
	Status  int
	Detail  any
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %v", e.Service, e.Status, e.Detail)
}
