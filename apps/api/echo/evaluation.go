package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/evaluation"
	"github.com/evaldocente/backend/core/policy"
	"github.com/evaldocente/backend/core/user"
)

type evaluationApi struct {
	svc      evaluation.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := evaluationApi{
		svc:      deps.EvaluationSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}
	admin := allow(policy.IsAdmin, api.users)

	eg := g.Group("/evaluaciones", jwt, allow(policy.IsOwnerOrAdmin, api.users))
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/mis_evaluaciones", api.queryMine)
	eg.GET("/reportes_generales", api.reports, admin)

	load := ownedObject(api.loadEvaluation, policy.IsOwnerOrAdmin, api.users, evaluation.ErrNotFound)
	dg := eg.Group("/:id", loadObject(load, evaluation.ErrNotFound))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/resultados_detallados", api.retrieve, admin)
}

func (api *evaluationApi) loadEvaluation(ctx echo.Context, id int) (interface{}, error) {
	return api.svc.GetByID(ctx.Request().Context(), id)
}

// query lists every evaluation to admins, and their own evaluations to anyone else.
func (api *evaluationApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting caller")
	}

	qp := newQueryParams(ctx)
	filter := &evaluation.QueryFilter{
		StudentID:   qp.Int("estudiante"),
		ProfessorID: qp.Int("profesor"),
		CourseID:    qp.Int("curso"),
		FormID:      qp.Int("formulario"),
	}
	if qp.Err() != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	if !caller.Admin {
		if filter.StudentID != 0 && filter.StudentID != caller.UserID {
			return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
		}
		filter.StudentID = caller.UserID
	}
	return api.list(ctx, filter)
}

func (api *evaluationApi) queryMine(ctx echo.Context) error {
	caller, err := getCaller(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting caller")
	}
	return api.list(ctx, &evaluation.QueryFilter{StudentID: caller.UserID})
}

func (api *evaluationApi) list(ctx echo.Context, filter *evaluation.QueryFilter) error {
	evals, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

// create submits an evaluation with its answers on behalf of the caller.
func (api *evaluationApi) create(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	e, err := api.svc.Submit(ctx.Request().Context(), student, data)
	if err != nil {
		return errors.Wrap(err, "submitting evaluation")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	e, ok := ctx.Get(objectKey).(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving evaluation from context")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *evaluationApi) update(ctx echo.Context) error {
	e, ok := ctx.Get(objectKey).(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving evaluation from context")
	}

	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *evaluationApi) destroy(ctx echo.Context) error {
	e, ok := ctx.Get(objectKey).(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving evaluation from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.ID); err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *evaluationApi) reports(ctx echo.Context) error {
	rep, err := api.svc.Reports(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building reports")
	}
	return ctx.JSON(http.StatusOK, rep)
}
