package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/mwalimu/somo/apps/api/echo"
	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/identity"
	"github.com/mwalimu/somo/core/lesson"
	"github.com/mwalimu/somo/core/user"
	drivesvc "github.com/mwalimu/somo/services/drive"
	emailsvc "github.com/mwalimu/somo/services/email"
	llmsvc "github.com/mwalimu/somo/services/llm"
	inmemdb "github.com/mwalimu/somo/storage/database/inmem"
)

var (
	errMissingSessionToken = httpErr{Error: "missing or malformed jwt"}
	errMissingBearer       = httpErr{Error: "missing or malformed authorization header"}
	errAdminRequired       = httpErr{Error: "admin privilege required"}
	errLessonNotFound      = httpErr{Error: "lesson not found"}
)

type fixture struct {
	conf      *core.Config
	app       Server
	usrSvc    *user.Service
	lessonSvc *lesson.Service
	dirSvc    *identity.Service
	llmMock   *llmsvc.ServiceMock
	archiver  *drivesvc.ArchiverMock

	// the directory's clock; advance it to make revocation observable past
	// the second-level precision of token timestamps
	now *time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := &core.Config{
		AppName:          "Somo",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Somo", Address: "noreply@test.cd"},
		ContactEmail:     "support@test.cd",
		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Identity: core.IdentityConfig{
			SigningKey:      "test-signing-key",
			CustomTokenTTL:  5 * time.Minute,
			IDTokenTTL:      time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
	}
	logger := &core.LoggerMock{}

	db := inmemdb.NewDB()
	dirSvc := identity.NewService(conf, inmemdb.NewAccountRepository(db), logger)
	now := time.Now().UTC()
	dirSvc.NowFunc = func() time.Time { return now }
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), dirSvc, mailSvc, conf, logger)
	lessonSvc := lesson.NewService(inmemdb.NewLessonRepository(db), logger)
	llmMock := &llmsvc.ServiceMock{}
	archiver := &drivesvc.ArchiverMock{}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		LessonSvc:   lessonSvc,
		IdentitySvc: dirSvc,
		LLMSvc:      llmMock,
		Archiver:    archiver,
		MailSvc:     mailSvc,
		Validate:    validate,
		Translator:  translator,
	})

	return &fixture{
		conf:      conf,
		app:       app,
		usrSvc:    usrSvc,
		lessonSvc: lessonSvc,
		dirSvc:    dirSvc,
		llmMock:   llmMock,
		archiver:  archiver,
		now:       &now,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// signIn records a provider sign-in, creating the profile and directory
// account the way the Google callback does.
func (f *fixture) signIn(t *testing.T, uid, email, name string) user.User {
	t.Helper()
	usr, err := f.usrSvc.SignedIn(context.Background(), user.Login{UID: uid, Email: email, Name: name})
	if err != nil {
		t.Fatalf("signIn() failed: %v", err)
	}
	return usr
}

func (f *fixture) sessionToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(f.conf, GetUserClaims(f.conf, usr))
	if err != nil {
		t.Fatalf("sessionToken() failed: %v", err)
	}
	return token
}

// idToken runs the full bridge exchange for uid and returns the session's ID
// token.
func (f *fixture) idToken(t *testing.T, uid string) string {
	t.Helper()
	ctx := context.Background()
	custom, err := f.dirSvc.MintCustomToken(ctx, uid)
	if err != nil {
		t.Fatalf("idToken() failed: %v", err)
	}
	sess, err := f.dirSvc.SignInWithCustomToken(ctx, custom)
	if err != nil {
		t.Fatalf("idToken() failed: %v", err)
	}
	return sess.IDToken
}

func (f *fixture) makeAdmin(t *testing.T, uid string) {
	t.Helper()
	_, err := f.dirSvc.UpdateClaims(context.Background(), uid, identity.ClaimMap{"admin": true, "role": "admin"})
	if err != nil {
		t.Fatalf("makeAdmin() failed: %v", err)
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
