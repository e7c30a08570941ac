package storage

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrConflict indicates the item already exists. Idempotent creates treat it as success.
	ErrConflict = errors.New("item already exists")
	// ErrRemote classifies a definitive I/O failure against the backing store.
	ErrRemote = errors.New("remote store failure")
	// ErrEmptyKey indicates an empty storage path was provided.
	ErrEmptyKey = errors.New("storage path must not be empty")
	// ErrInvalidKey indicates the storage path contains a path traversal segment.
	ErrInvalidKey = errors.New("storage path contains invalid segment")
)

// RemoteError carries the HTTP status of a failed remote operation.
// It unwraps to ErrConflict, ErrNotFound, or ErrRemote by status.
type RemoteError struct {
	Op     string
	Path   string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Op, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Path, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRemote
	}
}

// MapHTTPStatus maps storage errors to HTTP status codes for the API.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
