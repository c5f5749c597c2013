package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
	"github.com/evaldocente/backend/testutil"
)

func Test_professorApi_crud(t *testing.T) {
	app := setup(t)
	adminToken := app.token(t, app.admin)
	studentToken := app.token(t, app.student)

	ana := testutil.CreateUser(t, app.userRepo, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	luis := testutil.CreateUser(t, app.userRepo, "luis", "luis@example.com", "", []string{user.RoleTeacher}, true)
	profAna := testutil.CreateProfessor(t, app.profRepo, ana, "E-001", "Matemáticas")
	profPath := "/api/profesores/" + strconv.Itoa(profAna.ID)

	tests := []httpTest{
		{name: "Auth required", path: "/api/profesores", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "list (student)", path: "/api/profesores", token: studentToken, wantData: marshalList(t, profAna)},
		{name: "retrieve (student)", path: profPath, token: studentToken, wantData: marshalObj(t, profAna)},
		{
			name: "retrieve unknown", path: "/api/profesores/999", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errResourceMissing("professor")),
		},
		{
			name: "create (student)", method: http.MethodPost, path: "/api/profesores", token: studentToken,
			body:     body(t, professor.NewProfessor{UserID: luis.ID, EmployeeID: "E-002", Department: "Física"}),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "create missing fields", method: http.MethodPost, path: "/api/profesores", token: adminToken,
			body:     body(t, professor.NewProfessor{EmployeeID: "  "}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, fieldErrs("usuario_id", errFieldRequired, "id_empleado", errFieldRequired, "departamento", errFieldRequired)),
		},
		{
			name: "create unknown user", method: http.MethodPost, path: "/api/profesores", token: adminToken,
			body:     body(t, professor.NewProfessor{UserID: 999, EmployeeID: "E-002", Department: "Física"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, fieldErrs("usuario_id", errInvalidPK("user"))),
		},
		{
			name: "create duplicate employee id", method: http.MethodPost, path: "/api/profesores", token: adminToken,
			body:     body(t, professor.NewProfessor{UserID: luis.ID, EmployeeID: "E-001", Department: "Física"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, fieldErrs("id_empleado", professor.ErrEmployeeIDExists.Error())),
		},
		{
			name: "create second profile", method: http.MethodPost, path: "/api/profesores", token: adminToken,
			body:     body(t, professor.NewProfessor{UserID: ana.ID, EmployeeID: "E-009", Department: "Física"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, fieldErrs("usuario_id", professor.ErrUserHasProfile.Error())),
		},
	}
	app.run(t, tests)

	var profLuis professor.Professor
	t.Run("create", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/api/profesores", adminToken,
			marshalObj(t, professor.NewProfessor{UserID: luis.ID, EmployeeID: " E-002 ", Department: "Física"})))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &profLuis)
		assert.Equal(t, "E-002", profLuis.EmployeeID)
		assert.Equal(t, luis.Summary(), profLuis.User)
	})

	t.Run("filters", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/api/profesores?departamento=f%C3%ADsica", studentToken))
		checkCodeAndData(t, httpTest{wantData: marshalList(t, profLuis)}, rec)

		rec = app.do(newAuthRequest(http.MethodGet, "/api/profesores?search=ANA", studentToken))
		checkCodeAndData(t, httpTest{wantData: marshalList(t, profAna)}, rec)

		rec = app.do(newAuthRequest(http.MethodGet, "/api/profesores?search=E-00", studentToken))
		checkCodeAndData(t, httpTest{wantData: marshalList(t, profAna, profLuis)}, rec)
	})

	t.Run("replace (put and patch)", func(t *testing.T) {
		for _, method := range []string{http.MethodPut, http.MethodPatch} {
			rec := app.do(newAuthRequest(method, profPath, adminToken,
				marshalObj(t, professor.NewProfessor{UserID: ana.ID, EmployeeID: "E-001", Department: "Química " + method})))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var prof professor.Professor
			decode(t, rec, &prof)
			assert.Equal(t, "Química "+method, prof.Department)
			assert.Equal(t, profAna.ID, prof.ID)
		}

		// another professor's employee id is taken
		rec := app.do(newAuthRequest(http.MethodPut, profPath, adminToken,
			marshalObj(t, professor.NewProfessor{UserID: ana.ID, EmployeeID: "E-002", Department: "Química"})))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete keeps courses", func(t *testing.T) {
		crs := testutil.CreateCourse(t, app.crsRepo, "Mecánica", "FIS101", &profLuis)

		rec := app.do(newAuthRequest(http.MethodDelete, "/api/profesores/"+strconv.Itoa(profLuis.ID), studentToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(newAuthRequest(http.MethodDelete, "/api/profesores/"+strconv.Itoa(profLuis.ID), adminToken))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(newAuthRequest(http.MethodGet, "/api/cursos/"+strconv.Itoa(crs.ID), studentToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got course.Course
		decode(t, rec, &got)
		assert.Nil(t, got.Professor)
	})
}

func Test_professorApi_ratings(t *testing.T) {
	app := setup(t)
	adminToken := app.token(t, app.admin)
	studentToken := app.token(t, app.student)

	teacher := testutil.CreateUser(t, app.userRepo, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	prof := testutil.CreateProfessor(t, app.profRepo, teacher, "E-001", "Matemáticas")
	idle := testutil.CreateProfessor(t, app.profRepo,
		testutil.CreateUser(t, app.userRepo, "idle", "idle@example.com", "", nil, true), "E-002", "Historia")
	crs := testutil.CreateCourse(t, app.crsRepo, "Cálculo I", "MAT101", &prof)
	q1 := testutil.CreateQuestion(t, app.qRepo, "Claridad", question.TypeRating)
	q2 := testutil.CreateQuestion(t, app.qRepo, "Puntualidad", question.TypeRating)
	q3 := testutil.CreateQuestion(t, app.qRepo, "Dominio", question.TypeRating)
	frm := testutil.CreateForm(t, app.formRepo, "Semestre 1", true, q1, q2, q3)

	testutil.CreateEvaluation(t, app.evalRepo, app.student, prof, crs, frm, testutil.RatingAnswer(q1, 5), testutil.RatingAnswer(q2, 3))
	testutil.CreateEvaluation(t, app.evalRepo, app.other, prof, crs, frm, testutil.RatingAnswer(q3, 4))

	ratingPath := func(p professor.Professor) string {
		return "/api/profesores/" + strconv.Itoa(p.ID) + "/promedio_calificacion"
	}
	tests := []httpTest{
		{
			name: "average", path: ratingPath(prof), token: studentToken,
			wantData: marshalObj(t, professor.Rating{ProfessorID: prof.ID, AverageRating: 4}),
		},
		{
			name: "no ratings is 0", path: ratingPath(idle), token: studentToken,
			wantData: marshalObj(t, professor.Rating{ProfessorID: idle.ID, AverageRating: 0}),
		},
		{
			name: "unknown professor", path: "/api/profesores/999/promedio_calificacion", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errResourceMissing("professor")),
		},
		{
			name: "stats (student)", path: "/api/profesores/estadisticas_generales", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
	}
	app.run(t, tests)

	t.Run("stats", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/api/profesores/estadisticas_generales", adminToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats []professor.Stats
		decode(t, rec, &stats)
		byID := make(map[int]professor.Stats, len(stats))
		for _, s := range stats {
			byID[s.ID] = s
		}
		require.Len(t, byID, 2)
		assert.Equal(t, 2, byID[prof.ID].NumEvaluations)
		assert.Equal(t, 4.0, byID[prof.ID].AverageRating)
		assert.Equal(t, "Ana", byID[prof.ID].FirstName)
		assert.Equal(t, 0, byID[idle.ID].NumEvaluations)
		assert.Equal(t, 0.0, byID[idle.ID].AverageRating)
	})

	t.Run("rounding", func(t *testing.T) {
		// ratings 5, 3, 4, 5, 4 and 4 average 4.1666...
		third := testutil.CreateUser(t, app.userRepo, "third", "third@example.com", "", nil, true)
		testutil.CreateEvaluation(t, app.evalRepo, third, prof, crs, frm,
			testutil.RatingAnswer(q1, 5), testutil.RatingAnswer(q2, 4), testutil.RatingAnswer(q3, 4))

		rec := app.do(newAuthRequest(http.MethodGet, ratingPath(prof), studentToken))
		checkCodeAndData(t, httpTest{wantData: marshalObj(t, professor.Rating{ProfessorID: prof.ID, AverageRating: 4.17})}, rec)
	})
}
