package echoapi

import (
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

type contactApi struct {
	conf     *core.Config
	mailSvc  core.EmailService
	validate *validator.Validate
}

func registerContactAPI(g *echo.Group, deps ServerDeps) {
	api := contactApi{conf: deps.Conf, mailSvc: deps.MailSvc, validate: deps.Validate}

	g.POST("/contact", api.contact)
}

// Handlers

func (api *contactApi) contact(ctx echo.Context) error {
	var data ContactRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: api.conf.ContactEmail}},
		ReplyTo: &mail.Address{Name: data.Name, Address: data.Email},
		Subject: api.conf.AppName + " Contact: " + data.Subject,
		BodyStr: data.Message,
	})
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "message sent"})
}
