package echoapi_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/testutil"
)

func Test_formApi(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	adminToken := app.token(t, app.admin)
	studentToken := app.token(t, app.student)

	q1 := testutil.CreateQuestion(t, app.qRepo, "Claridad", question.TypeRating)
	q2 := testutil.CreateQuestion(t, app.qRepo, "Comentarios", question.TypeText)
	active := testutil.CreateForm(t, app.formRepo, "Semestre 1", true, q1, q2)
	inactive := testutil.CreateForm(t, app.formRepo, "Semestre 0", false, q1)

	activeH, err := app.formSvc.GetByID(ctx, active.ID)
	require.NoError(t, err)
	inactiveH, err := app.formSvc.GetByID(ctx, inactive.ID)
	require.NoError(t, err)
	inactivePath := "/api/formularios-evaluacion/" + strconv.Itoa(inactive.ID)

	tests := []httpTest{
		{
			name: "Auth required", path: "/api/formularios-evaluacion",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{name: "student lists active only", path: "/api/formularios-evaluacion", token: studentToken, wantData: marshalList(t, activeH)},
		{
			name: "student cannot ask for inactive", path: "/api/formularios-evaluacion?esta_activo=false", token: studentToken,
			wantData: marshalList(t),
		},
		{name: "admin lists all", path: "/api/formularios-evaluacion", token: adminToken, wantData: marshalList(t, inactiveH, activeH)},
		{
			name: "admin filters inactive", path: "/api/formularios-evaluacion?esta_activo=false", token: adminToken,
			wantData: marshalList(t, inactiveH),
		},
		{name: "available", path: "/api/formularios-evaluacion/disponibles", token: adminToken, wantData: marshalList(t, activeH)},
		{
			name: "student cannot see inactive", path: inactivePath, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errResourceMissing("evaluation form")),
		},
		{name: "admin sees inactive", path: inactivePath, token: adminToken, wantData: marshalObj(t, inactiveH)},
		{
			name: "create (student)", method: http.MethodPost, path: "/api/formularios-evaluacion", token: studentToken,
			body: body(t, form.NewForm{Title: "Semestre 2"}), wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "create unknown question", method: http.MethodPost, path: "/api/formularios-evaluacion", token: adminToken,
			body:     body(t, form.NewForm{Title: "Semestre 2", QuestionIDs: []int{q1.ID, 999}}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, fieldErrs("pregunta_ids", "invalid pk 999 - question does not exist")),
		},
		{name: "delete", method: http.MethodDelete, path: inactivePath, token: adminToken, wantCode: http.StatusNoContent},
	}
	app.run(t, tests)

	t.Run("create", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/api/formularios-evaluacion", adminToken, marshalObj(t, form.NewForm{
			Title:       " Semestre 2 ",
			Description: testutil.String("Evaluación docente"),
			QuestionIDs: []int{q2.ID, q1.ID, q2.ID},
		})))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var f form.Form
		decode(t, rec, &f)
		assert.Equal(t, "Semestre 2", f.Title)
		assert.True(t, f.IsActive)
		assert.False(t, f.CreatedAt.IsZero())
		assert.Equal(t, []question.Question{q1, q2}, f.Questions)
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPut, "/api/formularios-evaluacion/"+strconv.Itoa(active.ID), adminToken,
			marshalObj(t, form.NewForm{Title: "Semestre 1", QuestionIDs: []int{q1.ID}, IsActive: testutil.Bool(false)})))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var f form.Form
		decode(t, rec, &f)
		assert.False(t, f.IsActive)
		assert.Equal(t, []question.Question{q1}, f.Questions)

		rec = app.do(newAuthRequest(http.MethodGet, "/api/formularios-evaluacion/disponibles", studentToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var forms []form.Form
		decode(t, rec, &forms)
		require.Len(t, forms, 1)
		assert.Equal(t, "Semestre 2", forms[0].Title)
	})
}
