package sqlxrepos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/evaluation"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
	sqlxrepos "github.com/evaldocente/backend/storage/database/sqlx"
	"github.com/evaldocente/backend/testutil"
)

type repos struct {
	db    *sqlx.DB
	users user.Repository
	profs professor.Repository
	crs   course.Repository
	qs    question.Repository
	forms form.Repository
	evals evaluation.Repository
}

func setup(t *testing.T) repos {
	db := testutil.PrepareDB(t)
	return repos{
		db:    db,
		users: sqlxrepos.NewUserRepository(db),
		profs: sqlxrepos.NewProfessorRepository(db),
		crs:   sqlxrepos.NewCourseRepository(db),
		qs:    sqlxrepos.NewQuestionRepository(db),
		forms: sqlxrepos.NewFormRepository(db),
		evals: sqlxrepos.NewEvaluationRepository(db),
	}
}

func (r repos) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func Test_userRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	ana := testutil.CreateUser(t, r.users, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	luis := testutil.CreateUser(t, r.users, "luis", "", "", []string{user.RoleStudent}, false)
	testutil.CreateUser(t, r.users, "marta", "", "", []string{user.RoleAdmin}, true)

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, r.users.CheckUniqueness(ctx, "ana", "", 0))
		assert.Equal(t, user.ErrEmailExists, r.users.CheckUniqueness(ctx, "other", "ana@example.com", 0))
		assert.NoError(t, r.users.CheckUniqueness(ctx, "ana", "ana@example.com", ana.ID))
		// blank emails never clash
		assert.NoError(t, r.users.CheckUniqueness(ctx, "other", "", 0))

		dup := ana
		dup.ID = 0
		dup.Email = "other@example.com"
		_, err := r.users.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrUsernameExists, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := r.users.GetUser(ctx, user.GetFilter{UsernameOrEmail: "ana@example.com"})
		require.NoError(t, err)
		assert.Equal(t, ana.ID, got.ID)
		assert.Equal(t, []string{user.RoleTeacher}, got.Roles)

		_, err = r.users.GetUser(ctx, user.GetFilter{ID: 999})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = r.users.GetUser(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query", func(t *testing.T) {
		active := true
		usrs, err := r.users.QueryUsers(ctx, &user.QueryFilter{IsActive: &active, Roles: []string{"admin", "teacher"}},
			core.ParseOrdering("-username", user.OrderingFields))
		require.NoError(t, err)
		require.Len(t, usrs, 2)
		assert.Equal(t, "marta", usrs[0].Username)
		assert.Equal(t, "ana", usrs[1].Username)

		usrs, err = r.users.QueryUsers(ctx, &user.QueryFilter{Search: "LUI"}, nil)
		require.NoError(t, err)
		require.Len(t, usrs, 1)
		assert.Equal(t, luis.ID, usrs[0].ID)
	})

	t.Run("update and delete", func(t *testing.T) {
		luis.FirstName = "Luis Alberto"
		luis.IsActive = true
		got, err := r.users.UpdateUser(ctx, luis)
		require.NoError(t, err)
		assert.Equal(t, "Luis Alberto", got.FirstName)
		assert.True(t, got.IsActive)

		require.NoError(t, r.users.DeleteUsers(ctx, luis.ID))
		_, err = r.users.GetUser(ctx, user.GetFilter{ID: luis.ID})
		assert.Equal(t, user.ErrNotFound, err)

		_, err = r.users.UpdateUser(ctx, luis)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_professorRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	ana := testutil.CreateUser(t, r.users, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	luis := testutil.CreateUser(t, r.users, "luis", "luis@example.com", "", []string{user.RoleTeacher}, true)
	prof := testutil.CreateProfessor(t, r.profs, ana, "E-001", "Matemáticas")

	t.Run("create nests the user", func(t *testing.T) {
		assert.Equal(t, ana.Summary(), prof.User)
		assert.Equal(t, "Ana Test", prof.String())
	})

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, professor.ErrEmployeeIDExists, r.profs.CheckUniqueness(ctx, "E-001", luis.ID, 0))
		assert.Equal(t, professor.ErrUserHasProfile, r.profs.CheckUniqueness(ctx, "E-002", ana.ID, 0))
		assert.NoError(t, r.profs.CheckUniqueness(ctx, "E-001", ana.ID, prof.ID))

		// the schema backs the checks
		_, err := r.profs.CreateProfessor(ctx, professor.Professor{UserID: luis.ID, EmployeeID: "E-001", Department: "Física"})
		assert.Equal(t, professor.ErrEmployeeIDExists, err)
		_, err = r.profs.CreateProfessor(ctx, professor.Professor{UserID: ana.ID, EmployeeID: "E-002", Department: "Física"})
		assert.Equal(t, professor.ErrUserHasProfile, err)
	})

	t.Run("query", func(t *testing.T) {
		testutil.CreateProfessor(t, r.profs, luis, "E-002", "Física")

		profs, err := r.profs.QueryProfessors(ctx, &professor.QueryFilter{Department: "física"})
		require.NoError(t, err)
		require.Len(t, profs, 1)
		assert.Equal(t, luis.ID, profs[0].UserID)

		profs, err = r.profs.QueryProfessors(ctx, &professor.QueryFilter{Search: "e-00"})
		require.NoError(t, err)
		assert.Len(t, profs, 2)
	})

	t.Run("average rating", func(t *testing.T) {
		avg, err := r.profs.AverageRating(ctx, prof.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, avg)

		student := testutil.CreateUser(t, r.users, "student", "student@example.com", "", []string{user.RoleStudent}, true)
		crs := testutil.CreateCourse(t, r.crs, "Cálculo I", "MAT101", &prof)
		q1 := testutil.CreateQuestion(t, r.qs, "Claridad", question.TypeRating)
		q2 := testutil.CreateQuestion(t, r.qs, "Puntualidad", question.TypeRating)
		q3 := testutil.CreateQuestion(t, r.qs, "Comentarios", question.TypeText)
		frm := testutil.CreateForm(t, r.forms, "Semestre 1", true, q1, q2, q3)
		comment := "Bien"
		testutil.CreateEvaluation(t, r.evals, student, prof, crs, frm,
			testutil.RatingAnswer(q1, 5), testutil.RatingAnswer(q2, 2),
			evaluation.Answer{QuestionID: q3.ID, Text: &comment},
		)

		avg, err = r.profs.AverageRating(ctx, prof.ID)
		require.NoError(t, err)
		assert.Equal(t, 3.5, avg)

		stats, err := r.profs.QueryStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		for _, s := range stats {
			if s.ID == prof.ID {
				assert.Equal(t, 1, s.NumEvaluations)
				assert.Equal(t, 3.5, s.AverageRating)
			} else {
				assert.Equal(t, 0, s.NumEvaluations)
				assert.Equal(t, 0.0, s.AverageRating)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		crs, err := r.crs.QueryCourses(ctx, &course.QueryFilter{ProfessorID: prof.ID})
		require.NoError(t, err)
		require.Len(t, crs, 1)

		require.NoError(t, r.profs.DeleteProfessor(ctx, prof.ID))
		assert.Equal(t, professor.ErrNotFound, r.profs.DeleteProfessor(ctx, prof.ID))

		// courses lose their professor, evaluations go away
		got, err := r.crs.GetCourse(ctx, crs[0].ID)
		require.NoError(t, err)
		assert.Nil(t, got.ProfessorID)
		assert.Equal(t, 0, r.count(t, "evaluations"))
		assert.Equal(t, 0, r.count(t, "answers"))
	})
}

func Test_courseRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	calc := testutil.CreateCourse(t, r.crs, "Cálculo I", "MAT101", nil)
	testutil.CreateCourse(t, r.crs, "Álgebra", "MAT102", nil)

	assert.Equal(t, course.ErrCodeExists, r.crs.CheckUniqueness(ctx, "MAT101", 0))
	assert.NoError(t, r.crs.CheckUniqueness(ctx, "MAT101", calc.ID))

	_, err := r.crs.CreateCourse(ctx, course.Course{Name: "Cálculo II", Code: "MAT101"})
	assert.Equal(t, course.ErrCodeExists, err)

	calc.Code = "MAT102"
	_, err = r.crs.UpdateCourse(ctx, calc)
	assert.Equal(t, course.ErrCodeExists, err)

	crs, err := r.crs.QueryCourses(ctx, &course.QueryFilter{Search: "mat10"})
	require.NoError(t, err)
	assert.Len(t, crs, 2)

	stats, err := r.crs.QueryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 0, stats[0].NumEvaluations)
	assert.Equal(t, 0.0, stats[0].AverageRating)

	require.NoError(t, r.crs.DeleteCourse(ctx, calc.ID))
	_, err = r.crs.GetCourse(ctx, calc.ID)
	assert.Equal(t, course.ErrNotFound, err)
}

func Test_formRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	q1 := testutil.CreateQuestion(t, r.qs, "Claridad", question.TypeRating)
	q2 := testutil.CreateQuestion(t, r.qs, "Comentarios", question.TypeText)
	active := testutil.CreateForm(t, r.forms, "Semestre 1", true, q2, q1)
	testutil.CreateForm(t, r.forms, "Semestre 0", false)

	t.Run("questions", func(t *testing.T) {
		assert.Equal(t, []int{q1.ID, q2.ID}, active.QuestionIDs)

		active.QuestionIDs = []int{q2.ID}
		got, err := r.forms.UpdateForm(ctx, active)
		require.NoError(t, err)
		assert.Equal(t, []int{q2.ID}, got.QuestionIDs)

		// deleting a question drops it from the forms
		require.NoError(t, r.qs.DeleteQuestion(ctx, q2.ID))
		got, err = r.forms.GetForm(ctx, active.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{}, got.QuestionIDs)
	})

	t.Run("query", func(t *testing.T) {
		yes := true
		forms, err := r.forms.QueryForms(ctx, &form.QueryFilter{IsActive: &yes})
		require.NoError(t, err)
		require.Len(t, forms, 1)
		assert.Equal(t, active.ID, forms[0].ID)

		forms, err = r.forms.QueryForms(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, forms, 2)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := r.forms.GetForm(ctx, 999)
		assert.Equal(t, form.ErrNotFound, err)
		_, err = r.forms.UpdateForm(ctx, form.Form{ID: 999, Title: "lol"})
		assert.Equal(t, form.ErrNotFound, err)
	})
}

func Test_evaluationRepository(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, r.users, "student", "student@example.com", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, r.users, "ana", "ana@example.com", "", []string{user.RoleTeacher}, true)
	prof := testutil.CreateProfessor(t, r.profs, teacher, "E-001", "Matemáticas")
	crs := testutil.CreateCourse(t, r.crs, "Cálculo I", "MAT101", &prof)
	rating := testutil.CreateQuestion(t, r.qs, "Claridad", question.TypeRating)
	multi := testutil.CreateQuestion(t, r.qs, "Recursos", question.TypeMultipleChoice)
	frm := testutil.CreateForm(t, r.forms, "Semestre 1", true, rating, multi)

	e := testutil.CreateEvaluation(t, r.evals, student, prof, crs, frm,
		evaluation.Answer{QuestionID: multi.ID, Selections: []string{"libro", "videos"}},
		testutil.RatingAnswer(rating, 4),
	)
	key := evaluation.Key{StudentID: student.ID, ProfessorID: prof.ID, CourseID: crs.ID, FormID: frm.ID}

	t.Run("create stores the answers", func(t *testing.T) {
		got, err := r.evals.GetEvaluation(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, got.Answers, 2)
		assert.Equal(t, rating.ID, got.Answers[0].QuestionID)
		assert.Equal(t, 4, *got.Answers[0].Rating)
		assert.Nil(t, got.Answers[0].Selections)
		assert.Equal(t, []string{"libro", "videos"}, got.Answers[1].Selections)
		assert.Equal(t, key, got.Key())
	})

	t.Run("duplicate", func(t *testing.T) {
		exists, err := r.evals.Exists(ctx, key, 0)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = r.evals.Exists(ctx, key, e.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = r.evals.CreateEvaluation(ctx, e)
		assert.Equal(t, evaluation.ErrDuplicate, errors.Cause(err))
		assert.Equal(t, 1, r.count(t, "evaluations"))
	})

	t.Run("all or nothing", func(t *testing.T) {
		other := testutil.CreateUser(t, r.users, "other", "other@example.com", "", []string{user.RoleStudent}, true)
		formID := frm.ID
		_, err := r.evals.CreateEvaluation(ctx, evaluation.Evaluation{
			StudentID:   other.ID,
			ProfessorID: prof.ID,
			CourseID:    crs.ID,
			FormID:      &formID,
			Answers: []evaluation.Answer{
				testutil.RatingAnswer(rating, 5),
				testutil.RatingAnswer(question.Question{ID: 999}, 5),
			},
			SubmittedAt: e.SubmittedAt,
		})
		assert.Error(t, err)
		assert.Equal(t, 1, r.count(t, "evaluations"))
		assert.Equal(t, 2, r.count(t, "answers"))

		evals, err := r.evals.QueryEvaluations(ctx, &evaluation.QueryFilter{StudentID: other.ID})
		require.NoError(t, err)
		assert.Empty(t, evals)
	})

	t.Run("update replaces the answers", func(t *testing.T) {
		e.Answers = []evaluation.Answer{testutil.RatingAnswer(rating, 2)}
		got, err := r.evals.UpdateEvaluation(ctx, e)
		require.NoError(t, err)
		require.Len(t, got.Answers, 1)
		assert.Equal(t, 2, *got.Answers[0].Rating)
		assert.Equal(t, 1, r.count(t, "answers"))
	})

	t.Run("deleting the form keeps the evaluation", func(t *testing.T) {
		require.NoError(t, r.forms.DeleteForm(ctx, frm.ID))
		got, err := r.evals.GetEvaluation(ctx, e.ID)
		require.NoError(t, err)
		assert.Nil(t, got.FormID)
	})

	t.Run("delete cascades to the answers", func(t *testing.T) {
		require.NoError(t, r.evals.DeleteEvaluation(ctx, e.ID))
		assert.Equal(t, evaluation.ErrNotFound, r.evals.DeleteEvaluation(ctx, e.ID))
		assert.Equal(t, 0, r.count(t, "answers"))
	})
}
