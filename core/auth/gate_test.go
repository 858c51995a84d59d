package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/somo/core/identity"
)

func Test_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		cs   identity.ClaimSet
		want bool
	}{
		{name: "no claims", cs: identity.ClaimSet{}, want: false},
		{name: "admin flag", cs: identity.ClaimSet{Admin: true}, want: true},
		{name: "legacy role only", cs: identity.ClaimSet{Role: identity.RoleAdmin}, want: true},
		{name: "both", cs: identity.ClaimSet{Admin: true, Role: identity.RoleAdmin}, want: true},
		{name: "plain user role", cs: identity.ClaimSet{Role: identity.RoleUser}, want: false},
		{
			name: "unrelated claims grant nothing",
			cs:   identity.ClaimSet{Extra: identity.ClaimMap{"org": "kivu"}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdmin(tt.cs))
		})
	}
}

func Test_RequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(identity.ClaimSet{Admin: true}))
	assert.NoError(t, RequireAdmin(identity.ClaimSet{Role: identity.RoleAdmin}))
	assert.ErrorIs(t, RequireAdmin(identity.ClaimSet{Role: identity.RoleUser}), ErrAdminRequired)
	assert.ErrorIs(t, RequireAdmin(identity.ClaimSet{}), ErrAdminRequired)
}
