package transaction

import (
	"txaudit/internal/domain/user"
)

// ApplyVisibility derives the effective filters for caller. Auditors see
// every row and may narrow to one creator with CreatedByID. Every other role
// is pinned to its own rows: a client-supplied CreatedByID is overwritten, so
// asking for someone else's rows silently yields only the caller's.
func ApplyVisibility(caller user.Caller, f Filters) Filters {
	if caller.IsAuditor() {
		return f
	}

	self := caller.ID
	f.CreatedByID = &self
	return f
}
