package api

import (
	"github.com/JaimeStill/docket/internal/records"
)

// Domain holds the domain systems exposed by the API. Records is nil when
// the archive ledger is disabled.
type Domain struct {
	Records records.System
}

// NewDomain creates the domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	domain := &Domain{}
	if runtime.Database != nil {
		domain.Records = records.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		)
	}
	return domain
}
