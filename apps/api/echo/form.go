package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/policy"
	"github.com/evaldocente/backend/core/user"
)

type formApi struct {
	svc      form.ServiceInterface
	users    user.ServiceInterface
	validate *validator.Validate
}

func registerFormAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := formApi{
		svc:      deps.FormSvc,
		users:    deps.UserSvc,
		validate: deps.Validate,
	}

	fg := g.Group("/formularios-evaluacion", jwt, allow(policy.IsAdminOrReadOnly, api.users))
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.GET("/disponibles", api.available)

	dg := fg.Group("/:id", loadObject(api.loadForm, form.ErrNotFound))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

// loadForm hides inactive forms from non admins.
func (api *formApi) loadForm(ctx echo.Context, id int) (interface{}, error) {
	caller, err := getCaller(ctx, api.users)
	if err != nil {
		return nil, errors.Wrap(err, "getting caller")
	}
	f, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !caller.Admin && !f.IsActive {
		return nil, form.ErrNotFound
	}
	return f, nil
}

func (api *formApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting caller")
	}

	qp := newQueryParams(ctx)
	filter := &form.QueryFilter{IsActive: qp.Bool("esta_activo")}
	if qp.Err() != nil {
		return ctx.JSON(http.StatusOK, []form.Form{})
	}
	if !caller.Admin {
		if filter.IsActive != nil && !*filter.IsActive {
			return ctx.JSON(http.StatusOK, []form.Form{})
		}
		active := true
		filter.IsActive = &active
	}

	forms, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying forms")
	}
	if forms == nil {
		forms = []form.Form{}
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *formApi) available(ctx echo.Context) error {
	forms, err := api.svc.Available(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying available forms")
	}
	if forms == nil {
		forms = []form.Form{}
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *formApi) create(ctx echo.Context) error {
	var data form.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	f, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating form")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *formApi) retrieve(ctx echo.Context) error {
	f, ok := ctx.Get(objectKey).(form.Form)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving form from context")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) update(ctx echo.Context) error {
	f, ok := ctx.Get(objectKey).(form.Form)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving form from context")
	}

	var data form.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	f, err := api.svc.Update(ctx.Request().Context(), f, data)
	if err != nil {
		return errors.Wrap(err, "updating form")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) destroy(ctx echo.Context) error {
	f, ok := ctx.Get(objectKey).(form.Form)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving form from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), f.ID); err != nil {
		return errors.Wrap(err, "deleting form")
	}
	return ctx.NoContent(http.StatusNoContent)
}
