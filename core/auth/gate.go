package auth

import (
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/identity"
)

// ErrAdminRequired means the caller authenticated fine but lacks admin
// privilege. Maps to 403 at the HTTP layer, never 401.
var ErrAdminRequired = errors.New("admin privilege required")

// IsAdmin reports whether a verified claim set grants admin privilege.
//
// Both the boolean `admin` flag and the legacy `role` string are honored:
// accounts granted admin before the flag existed only carry role="admin" and
// were never backfilled. Tightening this to the flag alone would silently
// lock those accounts out.
func IsAdmin(cs identity.ClaimSet) bool {
	return cs.Admin || cs.Role == identity.RoleAdmin
}

// RequireAdmin authorizes a verified claim set for admin-only actions.
func RequireAdmin(cs identity.ClaimSet) error {
	if !IsAdmin(cs) {
		return ErrAdminRequired
	}
	return nil
}
