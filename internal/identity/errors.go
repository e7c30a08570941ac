package identity

import "errors"

// Rejection reasons. A rejected identity is never archived.
var (
	ErrNotValidated    = errors.New("document is not a validated event record")
	ErrMissingIdentity = errors.New("record id or name missing")
	ErrUnparseableDate = errors.New("record date could not be parsed")
)

// IsRejection reports whether err is one of the rejection reasons.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNotValidated) ||
		errors.Is(err, ErrMissingIdentity) ||
		errors.Is(err, ErrUnparseableDate)
}
