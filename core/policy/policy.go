// Package policy holds the access rules of the API as plain predicates.
//
// Every route is guarded by one Rule. A Rule receives the caller and, for
// object level checks, the target resource, and answers allow or deny.
package policy

import "net/http"

// Caller is the authenticated identity issuing a request.
// The zero Caller is anonymous.
type Caller struct {
	UserID int
	Admin  bool
}

func (c Caller) Authenticated() bool { return c.UserID > 0 }

// Owned is implemented by resources that belong to a user, eg: evaluations belong to their student.
type Owned interface {
	OwnerID() int
}

// Rule decides whether caller may perform method on target. target is nil for collection level checks.
type Rule func(caller Caller, method string, target interface{}) bool

// IsAuthenticated allows any authenticated caller.
func IsAuthenticated(caller Caller, _ string, _ interface{}) bool {
	return caller.Authenticated()
}

// IsAdmin allows administrators only.
func IsAdmin(caller Caller, _ string, _ interface{}) bool {
	return caller.Authenticated() && caller.Admin
}

// IsAdminOrReadOnly allows safe methods to authenticated callers and writes to administrators.
func IsAdminOrReadOnly(caller Caller, method string, target interface{}) bool {
	if !caller.Authenticated() {
		return false
	}
	if IsSafeMethod(method) {
		return true
	}
	return caller.Admin
}

// IsOwnerOrAdmin allows any authenticated caller at collection level (list, create)
// and, at object level, administrators or the owner of the target.
func IsOwnerOrAdmin(caller Caller, _ string, target interface{}) bool {
	if !caller.Authenticated() {
		return false
	}
	if target == nil || caller.Admin {
		return true
	}
	if owned, ok := target.(Owned); ok {
		return owned.OwnerID() == caller.UserID
	}
	return false
}

// IsSelfOrAdmin allows administrators, or callers acting on their own user id.
func IsSelfOrAdmin(caller Caller, _ string, target interface{}) bool {
	if !caller.Authenticated() {
		return false
	}
	if caller.Admin {
		return true
	}
	id, ok := target.(int)
	return ok && id == caller.UserID
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
