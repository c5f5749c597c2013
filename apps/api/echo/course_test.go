package echoapi_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/user"
	"github.com/evaldocente/backend/testutil"
)

func Test_courseApi(t *testing.T) {
	app := setup(t)
	adminToken := app.token(t, app.admin)
	studentToken := app.token(t, app.student)

	teacher := testutil.CreateUser(t, app.userRepo, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	prof := testutil.CreateProfessor(t, app.profRepo, teacher, "E-001", "Matemáticas")
	calc := testutil.CreateCourse(t, app.crsRepo, "Cálculo I", "MAT101", &prof)
	algebra := testutil.CreateCourse(t, app.crsRepo, "Álgebra", "MAT102", nil)
	hydrated, err := app.crsSvc.GetByID(context.Background(), calc.ID)
	require.NoError(t, err)
	calcPath := "/api/cursos/" + strconv.Itoa(calc.ID)

	tests := []httpTest{
		{name: "Auth required", path: "/api/cursos", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "retrieve nests the professor", path: calcPath, token: studentToken, wantData: marshalObj(t, hydrated)},
		{name: "search by code", path: "/api/cursos?search=mat102", token: studentToken, wantData: marshalList(t, algebra)},
		{
			name: "filter by professor", path: "/api/cursos?profesor=" + strconv.Itoa(prof.ID), token: studentToken,
			wantData: marshalList(t, hydrated),
		},
		{name: "invalid professor filter", path: "/api/cursos?profesor=lol", token: studentToken, wantData: marshalList(t)},
		{
			name: "create (student)", method: http.MethodPost, path: "/api/cursos", token: studentToken,
			body: body(t, course.NewCourse{Name: "Física", Code: "FIS101"}), wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "create blank", method: http.MethodPost, path: "/api/cursos", token: adminToken,
			body: body(t, course.NewCourse{Name: " ", Code: "FIS101"}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, fieldErrs("nombre", errFieldRequired)),
		},
		{
			name: "create duplicate code", method: http.MethodPost, path: "/api/cursos", token: adminToken,
			body: body(t, course.NewCourse{Name: "Cálculo II", Code: "MAT101"}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, fieldErrs("codigo", course.ErrCodeExists.Error())),
		},
		{
			name: "create unknown professor", method: http.MethodPost, path: "/api/cursos", token: adminToken,
			body: body(t, course.NewCourse{Name: "Física", Code: "FIS101", ProfessorID: testutil.Int(999)}), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, fieldErrs("profesor_id", errInvalidPK("professor"))),
		},
		{
			name: "replace keeps own code", method: http.MethodPut, path: calcPath, token: adminToken,
			body:     body(t, course.NewCourse{Name: "Cálculo 1", Code: "MAT101", ProfessorID: testutil.Int(prof.ID)}),
			wantData: marshalObj(t, course.Course{ID: calc.ID, Name: "Cálculo 1", Code: "MAT101", Professor: hydrated.Professor}),
		},
		{
			name: "patch unassigns professor", method: http.MethodPatch, path: calcPath, token: adminToken,
			body:     body(t, course.NewCourse{Name: "Cálculo 1", Code: "MAT101"}),
			wantData: marshalObj(t, course.Course{ID: calc.ID, Name: "Cálculo 1", Code: "MAT101"}),
		},
		{name: "delete", method: http.MethodDelete, path: calcPath, token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "deleted", path: calcPath, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errResourceMissing("course")),
		},
	}
	app.run(t, tests)

	t.Run("create", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/api/cursos", adminToken,
			marshalObj(t, course.NewCourse{Name: " Física ", Code: "FIS101", ProfessorID: testutil.Int(prof.ID)})))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var c course.Course
		decode(t, rec, &c)
		assert.Equal(t, "Física", c.Name)
		require.NotNil(t, c.Professor)
		assert.Equal(t, prof.ID, c.Professor.ID)
		assert.Equal(t, "Física (FIS101)", c.String())
	})
}
