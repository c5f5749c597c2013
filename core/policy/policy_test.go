package policy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ownedThing struct{ owner int }

func (o ownedThing) OwnerID() int { return o.owner }

func TestRules(t *testing.T) {
	anon := Caller{}
	student := Caller{UserID: 2}
	admin := Caller{UserID: 1, Admin: true}
	mine := ownedThing{owner: 2}
	theirs := ownedThing{owner: 3}

	tests := []struct {
		name   string
		rule   Rule
		caller Caller
		method string
		target interface{}
		want   bool
	}{
		{name: "authenticated: anon", rule: IsAuthenticated, caller: anon, method: http.MethodGet},
		{name: "authenticated: student", rule: IsAuthenticated, caller: student, method: http.MethodGet, want: true},
		{name: "admin: student", rule: IsAdmin, caller: student, method: http.MethodGet},
		{name: "admin: admin", rule: IsAdmin, caller: admin, method: http.MethodDelete, want: true},
		{name: "admin or read only: anon read", rule: IsAdminOrReadOnly, caller: anon, method: http.MethodGet},
		{name: "admin or read only: student read", rule: IsAdminOrReadOnly, caller: student, method: http.MethodGet, want: true},
		{name: "admin or read only: student write", rule: IsAdminOrReadOnly, caller: student, method: http.MethodPost},
		{name: "admin or read only: admin write", rule: IsAdminOrReadOnly, caller: admin, method: http.MethodPut, want: true},
		{name: "owner or admin: collection", rule: IsOwnerOrAdmin, caller: student, method: http.MethodPost, want: true},
		{name: "owner or admin: anon collection", rule: IsOwnerOrAdmin, caller: anon, method: http.MethodGet},
		{name: "owner or admin: own object", rule: IsOwnerOrAdmin, caller: student, method: http.MethodDelete, target: mine, want: true},
		{name: "owner or admin: other's object", rule: IsOwnerOrAdmin, caller: student, method: http.MethodGet, target: theirs},
		{name: "owner or admin: admin on other's object", rule: IsOwnerOrAdmin, caller: admin, method: http.MethodGet, target: theirs, want: true},
		{name: "owner or admin: unowned object", rule: IsOwnerOrAdmin, caller: student, method: http.MethodGet, target: "lol"},
		{name: "self or admin: self", rule: IsSelfOrAdmin, caller: student, method: http.MethodPut, target: 2, want: true},
		{name: "self or admin: other", rule: IsSelfOrAdmin, caller: student, method: http.MethodPut, target: 3},
		{name: "self or admin: admin", rule: IsSelfOrAdmin, caller: admin, method: http.MethodPut, target: 3, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule(tt.caller, tt.method, tt.target))
		})
	}
}
