package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/somo/core/lesson"
)

func Test_adminApi_queryUsers(t *testing.T) {
	f := setup(t)
	f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	f.signIn(t, "uid-2", "max@test.cd", "Max")
	f.makeAdmin(t, "uid-1")

	adminToken := f.idToken(t, "uid-1")
	userToken := f.idToken(t, "uid-2")

	tests := []httpTest{
		{
			name: "Auth required", path: "/api/admin/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingBearer),
		},
		{
			name: "Admin required", path: "/api/admin/users", token: userToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errAdminRequired),
		},
		{name: "OK", path: "/api/admin/users", token: adminToken, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newAuthRequest(http.MethodGet, "/api/admin/users", adminToken)
	f.app.ServeHTTP(rec, req)
	var rows []struct {
		ID       string                 `json:"id"`
		Email    string                 `json:"email"`
		Disabled bool                   `json:"disabled"`
		Claims   map[string]interface{} `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "uid-1", rows[0].ID)
	assert.Equal(t, true, rows[0].Claims["admin"])
	assert.Empty(t, rows[1].Claims)
}

// the legacy role claim alone must open the admin surface
func Test_adminApi_legacyRoleGrantsAdmin(t *testing.T) {
	f := setup(t)
	f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	_, err := f.dirSvc.UpdateClaims(context.Background(), "uid-1", map[string]interface{}{"role": "admin"})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/api/admin/users", f.idToken(t, "uid-1"))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_adminApi_updateAccess(t *testing.T) {
	f := setup(t)
	f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	f.signIn(t, "uid-2", "max@test.cd", "Max")
	f.makeAdmin(t, "uid-1")
	adminToken := f.idToken(t, "uid-1")

	// grant
	req, rec := newAuthRequest(http.MethodPatch, "/api/admin/users/uid-2", adminToken,
		marchallObj(t, map[string]string{"role": "admin"}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	type accessResp struct {
		UID      string                 `json:"uid"`
		Disabled bool                   `json:"disabled"`
		Claims   map[string]interface{} `json:"claims"`
	}
	var granted accessResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &granted))
	assert.Equal(t, "uid-2", granted.UID)
	assert.Equal(t, true, granted.Claims["admin"])
	assert.Equal(t, "admin", granted.Claims["role"])

	// the grant is effective on the next session
	req, rec = newAuthRequest(http.MethodGet, "/api/admin/users", f.idToken(t, "uid-2"))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// revoke; decode into a fresh struct, Unmarshal merges into populated maps
	req, rec = newAuthRequest(http.MethodPatch, "/api/admin/users/uid-2", adminToken,
		marchallObj(t, map[string]string{"role": ""}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var revoked accessResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revoked))
	assert.Equal(t, "uid-2", revoked.UID)
	assert.Empty(t, revoked.Claims)

	req, rec = newAuthRequest(http.MethodGet, "/api/admin/users", f.idToken(t, "uid-2"))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// bad role
	req, rec = newAuthRequest(http.MethodPatch, "/api/admin/users/uid-2", adminToken,
		marchallObj(t, map[string]string{"role": "superuser"}))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid role"}),
	}, rec)

	// unknown account
	req, rec = newAuthRequest(http.MethodPatch, "/api/admin/users/nope", adminToken,
		marchallObj(t, map[string]string{"role": "admin"}))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_adminApi_disableAccount(t *testing.T) {
	f := setup(t)
	f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	f.signIn(t, "uid-2", "max@test.cd", "Max")
	f.makeAdmin(t, "uid-1")
	adminToken := f.idToken(t, "uid-1")
	userToken := f.idToken(t, "uid-2")

	req, rec := newAuthRequest(http.MethodPatch, "/api/admin/users/uid-2", adminToken,
		marchallObj(t, map[string]bool{"disabled": true}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// the disabled user's outstanding token stops working immediately
	req, rec = newAuthRequest(http.MethodGet, "/api/lessons", userToken)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// re-enable brings it back
	req, rec = newAuthRequest(http.MethodPatch, "/api/admin/users/uid-2", adminToken,
		marchallObj(t, map[string]bool{"disabled": false}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/api/lessons", userToken)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_adminApi_trainingOptInAndExport(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.signIn(t, "uid-1", "jo@test.cd", "Jo")
	f.signIn(t, "uid-2", "max@test.cd", "Max")
	f.makeAdmin(t, "uid-1")
	adminToken := f.idToken(t, "uid-1")
	userToken := f.idToken(t, "uid-2")

	plan := createLessonPlan(t, f, userToken, "Counting")

	// opt-in is admin-only
	req, rec := newAuthRequest(http.MethodPatch, "/api/admin/lessons/"+plan.ID+"/optin", userToken,
		marchallObj(t, map[string]bool{"use_for_training": true}))
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// an admin can opt in any teacher's plan
	req, rec = newAuthRequest(http.MethodPatch, "/api/admin/lessons/"+plan.ID+"/optin", adminToken,
		marchallObj(t, map[string]bool{"use_for_training": true}))
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated lesson.LessonPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.UseForTraining)

	// an opted-out plan stays out of the opt-in export
	createLessonPlan(t, f, userToken, "Reading")

	req, rec = newAuthRequest(http.MethodGet, "/api/admin/finetune/export?target=lesson&opt_in_only=1", adminToken)
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "train_lesson_all_optin.jsonl")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 1)
	var record struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Metadata struct {
			DocID string `json:"doc_id"`
			OptIn bool   `json:"opt_in"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, plan.ID, record.Metadata.DocID)
	assert.True(t, record.Metadata.OptIn)
	require.Len(t, record.Messages, 2)
	assert.Equal(t, "system", record.Messages[0].Role)

	// without the opt-in filter both plans export
	req, rec = newAuthRequest(http.MethodGet, "/api/admin/finetune/export?target=lesson", adminToken)
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, strings.Split(strings.TrimSpace(rec.Body.String()), "\n"), 2)

	// practice is the default target
	_, err := f.lessonSvc.CreateNote(ctx, "uid-2", lesson.NewPracticeNote{
		LessonID:   plan.ID,
		Title:      "Counting unit",
		Reflection: "Bottle caps kept everyone engaged.",
	})
	require.NoError(t, err)

	req, rec = newAuthRequest(http.MethodGet, "/api/admin/finetune/export", adminToken)
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "train_practice_all.jsonl")
	assert.Contains(t, rec.Body.String(), "Counting unit")

	// bad target
	req, rec = newAuthRequest(http.MethodGet, "/api/admin/finetune/export?target=everything", adminToken)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
