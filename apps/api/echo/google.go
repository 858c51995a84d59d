package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/identity"
	"github.com/mwalimu/somo/core/user"
)

var errGoogleSignInFailed = echo.NewHTTPError(http.StatusBadRequest, "google sign-in failed")

type authApi struct {
	conf     *core.Config
	usrSvc   *user.Service
	dirSvc   *identity.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, sessionMW echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		usrSvc:   deps.UserSvc,
		dirSvc:   deps.IdentitySvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.GET("/google", api.googleRedirect)
	ag.GET("/google/callback", api.googleCallback)
	ag.POST("/google", api.googleSignIn)

	// authed endpoints
	sg := ag.Group("", sessionMW)
	sg.POST("/token-refresh", api.refreshToken)
	sg.GET("/custom-token", api.customToken)
}

func (api *authApi) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     api.conf.Google.ClientID,
		ClientSecret: api.conf.Google.ClientSecret,
		RedirectURL:  api.conf.Google.RedirectURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     googleoauth.Endpoint,
	}
}

// Handlers

func (api *authApi) googleRedirect(ctx echo.Context) error {
	redirectURI := ctx.QueryParam("redirect_uri")
	if redirectURI == "" {
		redirectURI = api.conf.FrontendBaseURL
	}
	state := newOauthState(api.conf.SecretKey, redirectURI)
	return ctx.Redirect(http.StatusFound, api.oauthConfig().AuthCodeURL(state.encode()))
}

func (api *authApi) googleCallback(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	state, err := parseOauthState(api.conf.SecretKey, ctx.QueryParam("state"))
	if err != nil {
		return err
	}

	tok, err := api.oauthConfig().Exchange(rctx, ctx.QueryParam("code"))
	if err != nil {
		return errGoogleSignInFailed
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return errGoogleSignInFailed
	}

	token, err := api.completeSignIn(ctx, rawIDToken)
	if err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, state.RedirectURI+"#token="+token)
}

func (api *authApi) googleSignIn(ctx echo.Context) error {
	var data GoogleSignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoogleSignInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	token, err := api.completeSignIn(ctx, data.IDToken)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// completeSignIn validates a Google ID token, records the login and issues
// the web session JWT.
func (api *authApi) completeSignIn(ctx echo.Context, rawIDToken string) (string, error) {
	rctx := ctx.Request().Context()

	payload, err := idtoken.Validate(rctx, rawIDToken, api.conf.Google.ClientID)
	if err != nil {
		return "", errGoogleSignInFailed
	}

	login := user.Login{
		UID:        payload.Subject,
		Email:      claimString(payload.Claims, "email"),
		Name:       claimString(payload.Claims, "name"),
		PictureURL: claimString(payload.Claims, "picture"),
	}
	if err = login.Validate(api.validate); err != nil {
		return "", err
	}

	usr, err := api.usrSvc.SignedIn(rctx, login)
	if err != nil {
		return "", errors.Wrap(err, "recording sign-in")
	}

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	return token, errors.Wrap(err, "generating token")
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// customToken hands the signed-in user a short-lived token to exchange for a
// directory session.
func (api *authApi) customToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	token, err := api.dirSvc.MintCustomToken(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CustomTokenResponse{Token: token})
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
