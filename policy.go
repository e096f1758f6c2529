package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Decision is the outcome of a policy check. Reason is safe to surface to an
// authenticated caller.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny carries the reason the check failed
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err translates a deny into the forbidden error for the HTTP boundary
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	reason := d.Reason
	if reason == "" {
		reason = "access denied"
	}
	return goerrors.New(reason, goerrors.CategoryAuthz).
		WithTextCode(TextCodeForbidden).
		WithCode(goerrors.CodeForbidden)
}

func isAdmin(actor *User) bool {
	return actor != nil && actor.Role == RoleAdmin
}

func isSelf(actor *User, targetID string) bool {
	return actor != nil && actor.ID.String() == targetID
}

// CanCreateUser decides whether the actor may create an account with the
// requested role. Minting administrators is reserved to administrators.
func CanCreateUser(actor *User, role UserRole) Decision {
	if role == RoleAdmin && !isAdmin(actor) {
		return Deny("only admins can create admin users")
	}
	return Allow()
}

// CanListUsers decides whether the actor may enumerate all accounts
func CanListUsers(actor *User) Decision {
	if !isAdmin(actor) {
		return Deny("only admins can list users")
	}
	return Allow()
}

// CanViewUser decides whether the actor may read the target account:
// administrators always, everyone else only their own record.
func CanViewUser(actor *User, targetID string) Decision {
	if isAdmin(actor) || isSelf(actor, targetID) {
		return Allow()
	}
	return Deny("users can only view their own profile")
}

// CanUpdateUser decides whether the actor may update the target account.
// Self-service updates may not touch the role field.
func CanUpdateUser(actor *User, targetID string, changesRole bool) Decision {
	if isAdmin(actor) {
		return Allow()
	}
	if !isSelf(actor, targetID) {
		return Deny("users can only update their own profile")
	}
	if changesRole {
		return Deny("users cannot change their own role")
	}
	return Allow()
}

// CanDeleteUser decides whether the actor may delete the target account.
// Only administrators delete, and never themselves.
func CanDeleteUser(actor *User, targetID string) Decision {
	if !isAdmin(actor) {
		return Deny("only admins can delete users")
	}
	if isSelf(actor, targetID) {
		return Deny("cannot delete your own account")
	}
	return Allow()
}
