package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_authApi_customToken(t *testing.T) {
	f := setup(t)
	usr := f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	token := f.sessionToken(t, usr)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/api/auth/custom-token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingSessionToken),
		},
		{
			name: "Garbage token rejected", method: http.MethodGet, path: "/api/auth/custom-token",
			token: "not-a-jwt", wantCode: http.StatusUnauthorized,
		},
		{
			name: "OK", method: http.MethodGet, path: "/api/auth/custom-token",
			token: token, wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// the full exchange: session token -> custom token -> directory session
func Test_authApi_bridgeExchange(t *testing.T) {
	f := setup(t)
	usr := f.signIn(t, "uid-1", "jo@test.cd", "Jo")

	req, rec := newAuthRequest(http.MethodGet, "/api/auth/custom-token", f.sessionToken(t, usr))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ctResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ctResp))
	require.NotEmpty(t, ctResp.Token)

	req, rec = newRequest(http.MethodPost, "/api/identity/sign-in", marchallObj(t, map[string]string{"token": ctResp.Token}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var sess struct {
		UID          string                 `json:"uid"`
		Email        string                 `json:"email"`
		IDToken      string                 `json:"id_token"`
		RefreshToken string                 `json:"refresh_token"`
		Claims       map[string]interface{} `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "uid-1", sess.UID)
	assert.Equal(t, "jo@test.cd", sess.Email)
	assert.NotEmpty(t, sess.IDToken)
	assert.NotEmpty(t, sess.RefreshToken)

	// the ID token opens bearer-protected endpoints
	req, rec = newAuthRequest(http.MethodGet, "/api/lessons", sess.IDToken)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// a custom token is not usable as a bearer credential
	req, rec = newAuthRequest(http.MethodGet, "/api/lessons", ctResp.Token)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_authApi_customToken_disabledAccount(t *testing.T) {
	f := setup(t)
	usr := f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	_, err := f.dirSvc.SetDisabled(context.Background(), "uid-1", true)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/api/auth/custom-token", f.sessionToken(t, usr))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_authApi_tokenRefresh(t *testing.T) {
	f := setup(t)
	usr := f.signIn(t, "uid-1", "jo@test.cd", "Jo")

	req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", f.sessionToken(t, usr))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// the refreshed token still works
	req, rec = newAuthRequest(http.MethodGet, "/api/auth/custom-token", resp.Token)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
