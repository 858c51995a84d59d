package user

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/identity"
)

type (
	// AccessPatch is a partial update to an account's access controls.
	// Nil fields are left untouched.
	AccessPatch struct {
		// Role: "admin", "user", or "" to strip the role claims entirely.
		Role *string `json:"role"`
		// Disabled flips the account-level switch. Not a claim: a
		// disabled account keeps its claims and gets them back when
		// re-enabled.
		Disabled *bool `json:"disabled"`
	}

	// Access is an account's effective access controls, read back fresh
	// after a mutation.
	Access struct {
		UID      string
		Email    string
		Disabled bool
		Claims   identity.ClaimSet
	}

	// PartialMutationError reports an access mutation that did not fully
	// land. The claims write and the disabled write are independent; either
	// half may have succeeded.
	PartialMutationError struct {
		ClaimsErr   error
		DisabledErr error
	}
)

func (e *PartialMutationError) Error() string {
	switch {
	case e.ClaimsErr != nil && e.DisabledErr != nil:
		return fmt.Sprintf("updating access: claims write failed: %v; disabled write failed: %v", e.ClaimsErr, e.DisabledErr)
	case e.ClaimsErr != nil:
		return fmt.Sprintf("updating access: claims write failed: %v", e.ClaimsErr)
	default:
		return fmt.Sprintf("updating access: disabled write failed: %v", e.DisabledErr)
	}
}

// UpdateAccess applies an access patch to a directory account.
//
// The claims half is a read-merge-write: the account's current claim bag is
// fetched and only the role claims are touched, so claims owned by other
// tooling survive. Setting role="" removes both `role` and `admin`; any other
// role writes `role` and derives `admin` from it, keeping the two
// authorization signals in sync for accounts written from here on.
//
// Both halves are individually idempotent, so a partially failed patch can be
// retried as-is.
func (svc *Service) UpdateAccess(ctx context.Context, uid string, patch AccessPatch) (Access, error) {
	var role identity.Role
	if patch.Role != nil {
		var err error
		if role, err = identity.ParseRole(*patch.Role); err != nil {
			return Access{}, err
		}
	}

	acct, err := svc.dir.Account(ctx, uid)
	if err != nil {
		return Access{}, err
	}

	var claimsErr, disabledErr error

	if patch.Role != nil {
		merged := acct.Claims.Clone()
		if role == identity.RoleNone {
			delete(merged, identity.ClaimRole)
			delete(merged, identity.ClaimAdmin)
		} else {
			merged[identity.ClaimRole] = string(role)
			merged[identity.ClaimAdmin] = role == identity.RoleAdmin
		}
		_, claimsErr = svc.dir.UpdateClaims(ctx, uid, merged)
	}

	if patch.Disabled != nil {
		_, disabledErr = svc.dir.SetDisabled(ctx, uid, *patch.Disabled)
	}

	if claimsErr != nil || disabledErr != nil {
		return Access{}, &PartialMutationError{ClaimsErr: claimsErr, DisabledErr: disabledErr}
	}

	// Read back so the caller sees exactly what is stored now.
	fresh, err := svc.dir.Account(ctx, uid)
	if err != nil {
		return Access{}, err
	}
	cs, err := fresh.ClaimSet()
	if err != nil {
		return Access{}, errors.Wrap(err, "decoding account claims")
	}
	return Access{UID: fresh.UID, Email: fresh.Email, Disabled: fresh.Disabled, Claims: cs}, nil
}

// AccessFor reads an account's current access controls.
func (svc *Service) AccessFor(ctx context.Context, uid string) (Access, error) {
	acct, err := svc.dir.Account(ctx, uid)
	if err != nil {
		return Access{}, err
	}
	cs, err := acct.ClaimSet()
	if err != nil {
		return Access{}, errors.Wrap(err, "decoding account claims")
	}
	return Access{UID: acct.UID, Email: acct.Email, Disabled: acct.Disabled, Claims: cs}, nil
}
