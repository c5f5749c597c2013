package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evaldocente/backend/core"
)

const (
	orderingParam = "ordering"
	searchParam   = "search"
)

// queryParams reads typed query parameters. The first malformed value is kept in err;
// list handlers answer an empty list in that case.
type queryParams struct {
	ctx echo.Context
	err error
}

func newQueryParams(ctx echo.Context) *queryParams {
	return &queryParams{ctx: ctx}
}

func (qp *queryParams) String(name string) string {
	return core.CleanString(qp.ctx.QueryParam(name))
}

func (qp *queryParams) Strings(name string) []string {
	return qp.ctx.QueryParams()[name]
}

// Int returns 0 when the param is missing.
func (qp *queryParams) Int(name string) int {
	val := qp.String(name)
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		qp.fail(err, name)
		return 0
	}
	return i
}

// Ints returns all the values of a repeated param, eg: ?id=1&id=2.
func (qp *queryParams) Ints(name string) []int {
	var ints []int
	for _, val := range qp.Strings(name) {
		i, err := strconv.Atoi(core.CleanString(val))
		if err != nil {
			qp.fail(err, name)
			return nil
		}
		ints = append(ints, i)
	}
	return ints
}

// Bool returns nil when the param is missing.
func (qp *queryParams) Bool(name string) *bool {
	val := qp.String(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		qp.fail(err, name)
		return nil
	}
	return &b
}

// Time parses RFC 3339 values; it returns the zero time when the param is missing.
func (qp *queryParams) Time(name string) time.Time {
	val := qp.String(name)
	if val == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		qp.fail(err, name)
		return time.Time{}
	}
	return t
}

func (qp *queryParams) Ordering(allowed map[string]string) []core.DBOrdering {
	return core.ParseOrdering(qp.ctx.QueryParam(orderingParam), allowed)
}

func (qp *queryParams) Err() error { return qp.err }

func (qp *queryParams) fail(err error, name string) {
	if qp.err != nil {
		return
	}
	if err == nil {
		err = strconv.ErrRange
	}
	qp.err = core.NewValidationError(err, core.FieldError{Field: name, Error: "invalid value"})
}
