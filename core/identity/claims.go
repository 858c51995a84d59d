package identity

import (
	"errors"
	"fmt"
)

// Claim names recognized by the authorization model.
const (
	ClaimAdmin = "admin"
	ClaimRole  = "role"
)

// Role is the access level recorded on an account's claim set.
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidClaims = errors.New("invalid claim set")
)

// ParseRole validates a raw role string. The empty string is valid and means
// "no role" (the claim is removed entirely on write).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleNone, RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return RoleNone, ErrInvalidRole
}

// ClaimMap is the untyped claim bag as stored by the identity directory and
// embedded in issued ID tokens. Claims other than the recognized ones are
// carried through untouched; other tooling may own them.
type ClaimMap map[string]interface{}

// Clone returns a shallow copy, safe for merge-and-write operations.
func (m ClaimMap) Clone() ClaimMap {
	out := make(ClaimMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ClaimSet is the typed view of the recognized authorization claims.
//
// Admin and Role are deliberately both present: the system migrated from a
// single `role` string to a boolean `admin` flag without a backfill, so
// stored accounts may carry either signal and both must be honored.
type ClaimSet struct {
	Admin bool
	Role  Role
	Extra ClaimMap
}

// ClaimSetFromMap decodes and validates the untyped claim bag. Malformed
// recognized claims error out rather than being silently ignored so that the
// authorization gate fails closed.
func ClaimSetFromMap(m ClaimMap) (ClaimSet, error) {
	cs := ClaimSet{Extra: make(ClaimMap)}
	for k, v := range m {
		switch k {
		case ClaimAdmin:
			b, ok := v.(bool)
			if !ok {
				return ClaimSet{}, fmt.Errorf("%w: claim %q is not a boolean", ErrInvalidClaims, ClaimAdmin)
			}
			cs.Admin = b
		case ClaimRole:
			s, ok := v.(string)
			if !ok {
				return ClaimSet{}, fmt.Errorf("%w: claim %q is not a string", ErrInvalidClaims, ClaimRole)
			}
			role, err := ParseRole(s)
			if err != nil {
				return ClaimSet{}, fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, s)
			}
			cs.Role = role
		default:
			cs.Extra[k] = v
		}
	}
	return cs, nil
}

// Map re-encodes the claim set to the directory's untyped shape. Recognized
// claims are omitted when unset so a cleared role does not linger as "".
func (cs ClaimSet) Map() ClaimMap {
	m := cs.Extra.Clone()
	if m == nil {
		m = make(ClaimMap)
	}
	if cs.Admin {
		m[ClaimAdmin] = true
	}
	if cs.Role != RoleNone {
		m[ClaimRole] = string(cs.Role)
	}
	return m
}
