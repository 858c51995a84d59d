package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core/identity"
)

type identityApi struct {
	svc      *identity.Service
	validate *validator.Validate
}

func registerIdentityAPI(g *echo.Group, bearerMW echo.MiddlewareFunc, deps ServerDeps) {
	api := identityApi{svc: deps.IdentitySvc, validate: deps.Validate}

	ig := g.Group("/identity")
	ig.POST("/sign-in", api.signIn)
	ig.POST("/refresh", api.refresh)
	ig.POST("/sign-out", api.signOut, bearerMW)
}

// Handlers

func (api *identityApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.SignInWithCustomToken(ctx.Request().Context(), data.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess))
}

func (api *identityApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.RefreshSession(ctx.Request().Context(), data.RefreshToken)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess))
}

func (api *identityApi) signOut(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.SignOut(ctx.Request().Context(), tok.UID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "signed out"})
}
