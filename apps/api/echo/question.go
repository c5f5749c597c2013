package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/policy"
	"github.com/evaldocente/backend/core/question"
)

type questionApi struct {
	svc      question.ServiceInterface
	validate *validator.Validate
}

func registerQuestionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := questionApi{
		svc:      deps.QuestionSvc,
		validate: deps.Validate,
	}

	qg := g.Group("/preguntas", jwt, allow(policy.IsAdmin, deps.UserSvc))
	qg.GET("", api.query)
	qg.POST("", api.create)
	qg.GET("/tipos", api.queryTypes)

	dg := qg.Group("/:id", loadObject(api.loadQuestion, question.ErrNotFound))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *questionApi) loadQuestion(ctx echo.Context, id int) (interface{}, error) {
	return api.svc.GetByID(ctx.Request().Context(), id)
}

func (api *questionApi) query(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	filter := &question.QueryFilter{
		Type:   qp.String("tipo_pregunta"),
		Search: qp.String(searchParam),
	}
	filter.Clean()

	questions, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []question.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *questionApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, question.Types)
}

func (api *questionApi) create(ctx echo.Context) error {
	var data question.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) retrieve(ctx echo.Context) error {
	q, ok := ctx.Get(objectKey).(question.Question)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving question from context")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) update(ctx echo.Context) error {
	q, ok := ctx.Get(objectKey).(question.Question)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving question from context")
	}

	var data question.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Update(ctx.Request().Context(), q, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) destroy(ctx echo.Context) error {
	q, ok := ctx.Get(objectKey).(question.Question)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving question from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), q.ID); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
