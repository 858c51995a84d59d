package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ClaimSetFromMap(t *testing.T) {
	tests := []struct {
		name    string
		in      ClaimMap
		want    ClaimSet
		wantErr error
	}{
		{name: "nil map", in: nil, want: ClaimSet{Extra: ClaimMap{}}},
		{name: "empty map", in: ClaimMap{}, want: ClaimSet{Extra: ClaimMap{}}},
		{
			name: "admin flag",
			in:   ClaimMap{"admin": true},
			want: ClaimSet{Admin: true, Extra: ClaimMap{}},
		},
		{
			name: "legacy role only",
			in:   ClaimMap{"role": "admin"},
			want: ClaimSet{Role: RoleAdmin, Extra: ClaimMap{}},
		},
		{
			name: "both signals",
			in:   ClaimMap{"admin": true, "role": "admin"},
			want: ClaimSet{Admin: true, Role: RoleAdmin, Extra: ClaimMap{}},
		},
		{
			name: "unrecognized claims pass through",
			in:   ClaimMap{"role": "user", "org": "kivu", "level": float64(3)},
			want: ClaimSet{Role: RoleUser, Extra: ClaimMap{"org": "kivu", "level": float64(3)}},
		},
		{name: "admin not a bool", in: ClaimMap{"admin": "yes"}, wantErr: ErrInvalidClaims},
		{name: "role not a string", in: ClaimMap{"role": 1}, wantErr: ErrInvalidClaims},
		{name: "unknown role", in: ClaimMap{"role": "superuser"}, wantErr: ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClaimSetFromMap(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_ClaimSet_Map(t *testing.T) {
	tests := []struct {
		name string
		in   ClaimSet
		want ClaimMap
	}{
		{name: "zero", in: ClaimSet{}, want: ClaimMap{}},
		{name: "admin", in: ClaimSet{Admin: true, Role: RoleAdmin}, want: ClaimMap{"admin": true, "role": "admin"}},
		{
			name: "cleared role does not linger",
			in:   ClaimSet{Role: RoleNone, Extra: ClaimMap{"org": "kivu"}},
			want: ClaimMap{"org": "kivu"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Map())
		})
	}
}

func Test_ClaimMap_Clone(t *testing.T) {
	orig := ClaimMap{"role": "user", "org": "kivu"}
	clone := orig.Clone()
	clone["role"] = "admin"
	delete(clone, "org")

	assert.Equal(t, ClaimMap{"role": "user", "org": "kivu"}, orig)
}

func Test_ParseRole(t *testing.T) {
	for _, valid := range []string{"", "user", "admin"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
