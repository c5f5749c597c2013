package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/policy"
	"github.com/evaldocente/backend/core/professor"
)

type professorApi struct {
	svc      professor.ServiceInterface
	validate *validator.Validate
}

func registerProfessorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := professorApi{
		svc:      deps.ProfessorSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/profesores", jwt, allow(policy.IsAdminOrReadOnly, deps.UserSvc))
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/estadisticas_generales", api.stats, allow(policy.IsAdmin, deps.UserSvc))

	dg := pg.Group("/:id", loadObject(api.loadProfessor, professor.ErrNotFound))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/promedio_calificacion", api.averageRating)
}

func (api *professorApi) loadProfessor(ctx echo.Context, id int) (interface{}, error) {
	return api.svc.GetByID(ctx.Request().Context(), id)
}

func (api *professorApi) query(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	filter := &professor.QueryFilter{
		Department: qp.String("departamento"),
		Search:     qp.String(searchParam),
	}
	filter.Clean()

	profs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying professors")
	}
	if profs == nil {
		profs = []professor.Professor{}
	}
	return ctx.JSON(http.StatusOK, profs)
}

func (api *professorApi) create(ctx echo.Context) error {
	var data professor.NewProfessor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfessor")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	prof, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating professor")
	}
	return ctx.JSON(http.StatusCreated, prof)
}

func (api *professorApi) retrieve(ctx echo.Context) error {
	prof, ok := ctx.Get(objectKey).(professor.Professor)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving professor from context")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *professorApi) update(ctx echo.Context) error {
	prof, ok := ctx.Get(objectKey).(professor.Professor)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving professor from context")
	}

	var data professor.NewProfessor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfessor")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc, prof); err != nil {
		return err
	}

	prof, err := api.svc.Update(ctx.Request().Context(), prof, data)
	if err != nil {
		return errors.Wrap(err, "updating professor")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *professorApi) destroy(ctx echo.Context) error {
	prof, ok := ctx.Get(objectKey).(professor.Professor)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving professor from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), prof.ID); err != nil {
		return errors.Wrap(err, "deleting professor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *professorApi) averageRating(ctx echo.Context) error {
	prof, ok := ctx.Get(objectKey).(professor.Professor)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving professor from context")
	}
	rating, err := api.svc.AverageRating(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "computing average rating")
	}
	return ctx.JSON(http.StatusOK, rating)
}

func (api *professorApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing professor stats")
	}
	if stats == nil {
		stats = []professor.Stats{}
	}
	return ctx.JSON(http.StatusOK, stats)
}
