package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/finetune"
	"github.com/mwalimu/somo/core/identity"
	"github.com/mwalimu/somo/core/lesson"
	"github.com/mwalimu/somo/core/user"
)

type adminApi struct {
	usrSvc    *user.Service
	dirSvc    *identity.Service
	lessonSvc *lesson.Service
	validate  *validator.Validate
}

func registerAdminAPI(g *echo.Group, bearerMW, adminMW echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		usrSvc:    deps.UserSvc,
		dirSvc:    deps.IdentitySvc,
		lessonSvc: deps.LessonSvc,
		validate:  deps.Validate,
	}

	ag := g.Group("/admin", bearerMW, adminMW)
	ag.GET("/users", api.queryUsers)
	ag.PATCH("/users/:uid", api.updateAccess)
	ag.PATCH("/lessons/:id/optin", api.setTrainingOptIn)
	ag.GET("/finetune/export", api.exportFineTune)
}

// Handlers

func (api *adminApi) queryUsers(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	users, err := api.usrSvc.QueryAll(rctx)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	accts, err := api.dirSvc.Accounts(rctx)
	if err != nil {
		return err
	}

	acctsByUID := make(map[string]identity.Account, len(accts))
	for _, a := range accts {
		acctsByUID[a.UID] = a
	}

	resp := make([]AdminUserResponse, 0, len(users))
	for _, usr := range users {
		row := AdminUserResponse{
			ID:        usr.ID,
			Name:      usr.Name,
			Email:     usr.Email,
			LastLogin: usr.LastLogin,
			Claims:    identity.ClaimMap{},
		}
		if acct, ok := acctsByUID[usr.ID]; ok {
			row.Disabled = acct.Disabled
			row.Claims = acct.Claims
		}
		resp = append(resp, row)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *adminApi) updateAccess(ctx echo.Context) error {
	var data user.AccessPatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AccessPatch")
	}

	access, err := api.usrSvc.UpdateAccess(ctx.Request().Context(), ctx.Param("uid"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAccessResponse(access))
}

func (api *adminApi) setTrainingOptIn(ctx echo.Context) error {
	var data TrainingOptInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrainingOptInRequest")
	}

	plan, err := api.lessonSvc.SetTrainingOptIn(ctx.Request().Context(), ctx.Param("id"), data.UseForTraining)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan)
}

// exportFineTune streams the curated corpus as a JSONL download.
func (api *adminApi) exportFineTune(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	target, err := finetune.ParseTarget(ctx.QueryParam("target"))
	if err != nil {
		return err
	}
	scope := ctx.QueryParam("scope")
	if scope != "mine" {
		scope = "all"
	}
	optInOnly := ctx.QueryParam("opt_in_only") == "1"

	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+finetune.Filename(target, scope, optInOnly)+`"`)
	resp.WriteHeader(http.StatusOK)

	switch target {
	case finetune.TargetLesson:
		var plans []lesson.LessonPlan
		if optInOnly {
			plans, err = api.lessonSvc.TrainingSet(rctx)
		} else {
			plans, err = api.lessonSvc.AllPlans(rctx)
		}
		if err != nil {
			return errors.Wrap(err, "querying lesson plans")
		}
		if scope == "mine" {
			plans = filterPlansByOwner(plans, tok.UID)
		}
		return finetune.WriteLessons(resp, plans)

	default: // finetune.TargetPractice
		notes, err := api.lessonSvc.AllNotes(rctx)
		if err != nil {
			return errors.Wrap(err, "querying practice notes")
		}
		if scope == "mine" {
			notes = filterNotesByOwner(notes, tok.UID)
		}
		plans, err := api.lessonSvc.AllPlans(rctx)
		if err != nil {
			return errors.Wrap(err, "querying lesson plans")
		}
		plansByID := make(map[string]lesson.LessonPlan, len(plans))
		for _, p := range plans {
			plansByID[p.ID] = p
		}
		return finetune.WritePractices(resp, notes, plansByID)
	}
}

func filterPlansByOwner(plans []lesson.LessonPlan, ownerID string) []lesson.LessonPlan {
	out := plans[:0]
	for _, p := range plans {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out
}

func filterNotesByOwner(notes []lesson.PracticeNote, ownerID string) []lesson.PracticeNote {
	out := notes[:0]
	for _, n := range notes {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	return out
}

// Requests & Responses

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	GoogleSignInRequest struct {
		IDToken string `json:"id_token" validate:"required"`
	}

	CustomTokenResponse struct {
		Token string `json:"token"`
	}

	SignInRequest struct {
		Token string `json:"token" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	SessionResponse struct {
		UID          string            `json:"uid"`
		Email        string            `json:"email"`
		IDToken      string            `json:"id_token"`
		RefreshToken string            `json:"refresh_token"`
		ExpiresAt    time.Time         `json:"expires_at"`
		Claims       identity.ClaimMap `json:"claims"`
	}

	AdminUserResponse struct {
		ID        string            `json:"id"`
		Name      string            `json:"name"`
		Email     string            `json:"email"`
		LastLogin time.Time         `json:"last_login"`
		Disabled  bool              `json:"disabled"`
		Claims    identity.ClaimMap `json:"claims"`
	}

	AccessResponse struct {
		UID      string            `json:"uid"`
		Email    string            `json:"email"`
		Disabled bool              `json:"disabled"`
		Claims   identity.ClaimMap `json:"claims"`
	}

	TrainingOptInRequest struct {
		UseForTraining bool `json:"use_for_training"`
	}

	GenerateRequest struct {
		Prompt string `json:"prompt" validate:"required"`
	}

	ChatRequest struct {
		Messages []core.ChatMessage `json:"messages" validate:"required,min=1,dive"`
	}

	ChatResponse struct {
		Reply string `json:"reply"`
	}

	ContactRequest struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
		Subject string `json:"subject" validate:"required"`
		Message string `json:"message" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func newSessionResponse(sess identity.Session) SessionResponse {
	return SessionResponse{
		UID:          sess.UID,
		Email:        sess.Email,
		IDToken:      sess.IDToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
		Claims:       sess.Claims.Map(),
	}
}

func newAccessResponse(access user.Access) AccessResponse {
	return AccessResponse{
		UID:      access.UID,
		Email:    access.Email,
		Disabled: access.Disabled,
		Claims:   access.Claims.Map(),
	}
}

func (r *GoogleSignInRequest) Validate(validate *validator.Validate) error {
	r.IDToken = core.CleanString(r.IDToken)
	return validate.Struct(r)
}

func (r *SignInRequest) Validate(validate *validator.Validate) error {
	r.Token = core.CleanString(r.Token)
	return validate.Struct(r)
}

func (r *RefreshRequest) Validate(validate *validator.Validate) error {
	r.RefreshToken = core.CleanString(r.RefreshToken)
	return validate.Struct(r)
}

func (r *GenerateRequest) Validate(validate *validator.Validate) error {
	r.Prompt = core.CleanString(r.Prompt)
	return validate.Struct(r)
}

func (r *ChatRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r *ContactRequest) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Subject = core.CleanString(r.Subject)
	return validate.Struct(r)
}
