package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/auth"
	"github.com/mwalimu/somo/core/finetune"
	"github.com/mwalimu/somo/core/identity"
	"github.com/mwalimu/somo/core/lesson"
	"github.com/mwalimu/somo/core/user"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(deps ServerDeps, signalShutdown func()) echo.HTTPErrorHandler {
	logger := deps.Logger

	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == echojwt.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(deps.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *user.PartialMutationError:
			// one half of the access patch landed; tell the caller which
			// so a retry targets the failed half only
			code = http.StatusBadGateway
			message = origErr.Error()
		default:
			switch {
			case errors.Is(err, auth.ErrMissingCredential),
				errors.Is(err, identity.ErrInvalidToken),
				errors.Is(err, identity.ErrExpiredToken),
				errors.Is(err, identity.ErrRevokedToken):
				code = http.StatusUnauthorized
				message = origErr.Error()
			case errors.Is(err, auth.ErrAdminRequired), errors.Is(err, identity.ErrAccountDisabled):
				code = http.StatusForbidden
				message = origErr.Error()
			case errors.Is(err, identity.ErrInvalidRole), errors.Is(err, identity.ErrInvalidClaims),
				errors.Is(err, finetune.ErrInvalidTarget), errors.Is(err, errInvalidState):
				code = http.StatusBadRequest
				message = origErr.Error()
			case errors.Is(err, user.ErrNotFound), errors.Is(err, lesson.ErrNotFound), errors.Is(err, identity.ErrAccountNotFound):
				code = http.StatusNotFound
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Name = claims.Name
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if !ctx.Response().Committed {
			var respErr error
			if ctx.Request().Method == http.MethodHead {
				respErr = ctx.NoContent(code)
			} else {
				respErr = ctx.JSON(code, echo.Map{"error": message})
			}
			if respErr != nil {
				logger.Error(fmt.Sprintf("sending error response: %v", respErr), respErr)
			}
		}
	}
}
