package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/lesson"
)

var errMissingFile = echo.NewHTTPError(http.StatusBadRequest, "file is required")

type lessonApi struct {
	svc      *lesson.Service
	archiver core.FileArchiver
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, bearerMW echo.MiddlewareFunc, deps ServerDeps) {
	api := lessonApi{
		svc:      deps.LessonSvc,
		archiver: deps.Archiver,
		validate: deps.Validate,
	}

	lg := g.Group("/lessons", bearerMW)
	lg.POST("", api.create)
	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update)
	lg.DELETE("/:id", api.destroy)
	lg.POST("/:id/archive", api.archive)

	pg := g.Group("/practices", bearerMW)
	pg.POST("", api.createNote)
	pg.GET("", api.queryNotes)
	pg.DELETE("/:id", api.destroyNote)
}

// Handlers

func (api *lessonApi) create(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	var data lesson.NewLessonPlan
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonPlan")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	plan, err := api.svc.Create(ctx.Request().Context(), tok.UID, data)
	if err != nil {
		return errors.Wrap(err, "creating lesson plan")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

func (api *lessonApi) query(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	var ord Ordering
	if err = ord.Bind(ctx); err != nil {
		return err
	}

	plans, err := api.svc.QueryByOwner(ctx.Request().Context(), tok.UID, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying lesson plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	plan, err := api.svc.Get(ctx.Request().Context(), tok.UID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *lessonApi) update(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	orig, err := api.svc.Get(rctx, tok.UID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data lesson.UpdateLessonPlan
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLessonPlan")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	plan, err := api.svc.Update(rctx, tok.UID, orig.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), tok.UID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// archive uploads the plan's exported PDF and records the resulting file ID.
func (api *lessonApi) archive(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return errMissingFile
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	contentType := fileHdr.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/pdf"
	}

	fileID, err := api.archiver.Archive(rctx, fileHdr.Filename, contentType, file)
	if err != nil {
		return errors.Wrap(err, "archiving file")
	}

	plan, err := api.svc.SetDriveFileID(rctx, tok.UID, ctx.Param("id"), fileID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *lessonApi) createNote(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	var data lesson.NewPracticeNote
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPracticeNote")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	note, err := api.svc.CreateNote(ctx.Request().Context(), tok.UID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, note)
}

func (api *lessonApi) queryNotes(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	var ord Ordering
	if err = ord.Bind(ctx); err != nil {
		return err
	}

	notes, err := api.svc.QueryNotesByOwner(ctx.Request().Context(), tok.UID, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying practice notes")
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *lessonApi) destroyNote(ctx echo.Context) error {
	tok, err := getContextIDToken(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteNote(ctx.Request().Context(), tok.UID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
