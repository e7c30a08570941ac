package mail

import "errors"

var (
	// ErrRemote classifies a failed message store call.
	ErrRemote = errors.New("message store failure")
	// ErrNotFound indicates the message or attachment does not exist.
	ErrNotFound = errors.New("message or attachment not found")
)
