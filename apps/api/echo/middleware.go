package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/policy"
	"github.com/evaldocente/backend/core/user"
)

const objectKey = "object"

// allow guards a route with rule at collection level.
func allow(rule policy.Rule, users user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller, err := getCaller(ctx, users)
			if err != nil {
				return errors.Wrap(err, "getting caller")
			}
			if !rule(caller, ctx.Request().Method, nil) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// objectLoader finds the object with the given id, returning a core.NotFoundError if it does not exist.
type objectLoader func(ctx echo.Context, id int) (interface{}, error)

// loadObject stores the object named by the ":id" path param into the context.
// notFound is returned when the param is not a valid id.
func loadObject(load objectLoader, notFound error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil || id <= 0 {
				return notFound
			}
			obj, err := load(ctx, id)
			if err != nil {
				return errors.Wrap(err, "loading object")
			}
			ctx.Set(objectKey, obj)
			return next(ctx)
		}
	}
}

// ownedObject wraps load with an object level check: callers denied by rule
// get notFound, so that others' objects stay hidden.
func ownedObject(load objectLoader, rule policy.Rule, users user.ServiceInterface, notFound error) objectLoader {
	return func(ctx echo.Context, id int) (interface{}, error) {
		caller, err := getCaller(ctx, users)
		if err != nil {
			return nil, errors.Wrap(err, "getting caller")
		}
		obj, err := load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rule(caller, ctx.Request().Method, obj) {
			return nil, notFound
		}
		return obj, nil
	}
}
