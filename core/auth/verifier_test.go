package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/somo/core/identity"
)

type verifierStub struct {
	tokens map[string]*identity.Token
	errs   map[string]error

	lastCheckRevoked bool
}

func (s *verifierStub) VerifyIDToken(_ context.Context, token string, checkRevoked bool) (*identity.Token, error) {
	s.lastCheckRevoked = checkRevoked
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if tok, ok := s.tokens[token]; ok {
		return tok, nil
	}
	return nil, identity.ErrInvalidToken
}

func Test_Verifier_VerifyBearer(t *testing.T) {
	ctx := context.Background()
	stub := &verifierStub{
		tokens: map[string]*identity.Token{"good": {UID: "uid-1"}},
		errs: map[string]error{
			"stale":   identity.ErrExpiredToken,
			"revoked": identity.ErrRevokedToken,
		},
	}
	v := NewVerifier(stub)

	tests := []struct {
		name    string
		header  string
		wantUID string
		wantErr error
	}{
		{name: "ok", header: "Bearer good", wantUID: "uid-1"},
		{name: "scheme is case-insensitive", header: "bearer good", wantUID: "uid-1"},
		{name: "extra whitespace", header: "Bearer   good", wantUID: "uid-1"},
		{name: "no header", header: "", wantErr: ErrMissingCredential},
		{name: "wrong scheme", header: "Basic Zm9vOmJhcg==", wantErr: ErrMissingCredential},
		{name: "scheme only", header: "Bearer", wantErr: ErrMissingCredential},
		{name: "blank token", header: "Bearer   ", wantErr: ErrMissingCredential},
		{name: "invalid token", header: "Bearer junk", wantErr: identity.ErrInvalidToken},
		{name: "expired token", header: "Bearer stale", wantErr: identity.ErrExpiredToken},
		{name: "revoked token", header: "Bearer revoked", wantErr: identity.ErrRevokedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := v.VerifyBearer(ctx, tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, tok.UID)
		})
	}
}

func Test_Verifier_checkRevokedPassthrough(t *testing.T) {
	ctx := context.Background()
	stub := &verifierStub{tokens: map[string]*identity.Token{"good": {UID: "uid-1"}}}

	v := NewVerifier(stub)
	_, err := v.VerifyBearer(ctx, "Bearer good")
	require.NoError(t, err)
	assert.True(t, stub.lastCheckRevoked)

	v.CheckRevoked = false
	_, err = v.VerifyBearer(ctx, "Bearer good")
	require.NoError(t, err)
	assert.False(t, stub.lastCheckRevoked)
}
