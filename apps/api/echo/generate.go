package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

type generateApi struct {
	svc      core.LLMService
	validate *validator.Validate
}

func registerGenerateAPI(g *echo.Group, bearerMW echo.MiddlewareFunc, deps ServerDeps) {
	api := generateApi{svc: deps.LLMSvc, validate: deps.Validate}

	g.POST("/generate", api.generate, bearerMW)
	g.POST("/chat", api.chat, bearerMW)
}

// Handlers

func (api *generateApi) generate(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	result, err := api.svc.GenerateLessonPlan(ctx.Request().Context(), data.Prompt)
	if err != nil {
		return errors.Wrap(err, "generating lesson plan")
	}

	// the model is asked for JSON; pass it through structured when it
	// complied and raw when it did not
	var structured map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(result), &structured); jsonErr == nil {
		return ctx.JSON(http.StatusOK, structured)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"result": result})
}

func (api *generateApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reply, err := api.svc.Chat(ctx.Request().Context(), data.Messages)
	if err != nil {
		return errors.Wrap(err, "chatting")
	}
	return ctx.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
