package batch

import "errors"

var (
	ErrTooLarge       = errors.New("document exceeds maximum size")
	ErrLedgerRequired = errors.New("resume requires a processed set")
)
