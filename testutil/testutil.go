// Package testutil provides fixtures shared by the tests of the repositories, services and API.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/evaluation"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
	"github.com/evaldocente/backend/storage/database"
)

const testDBEnv = "TEST_DATABASE_URL"

var tables = []string{
	"answers", "evaluations", "evaluation_form_questions", "evaluation_forms",
	"questions", "courses", "professors", "users",
}

// PrepareDB opens the database at $TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when the variable is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(testDBEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDBEnv)
	}
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if _, err = db.Exec("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		Username:  uname,
		FirstName: strings.Title(uname),
		LastName:  "Test",
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd == "" {
		pwd = "Passw0rd!"
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProfessor(t *testing.T, repo professor.Repository, usr user.User, employeeID, department string) professor.Professor {
	t.Helper()

	prof, err := repo.CreateProfessor(context.Background(), professor.Professor{
		UserID:     usr.ID,
		EmployeeID: employeeID,
		Department: department,
	})
	if err != nil {
		t.Fatalf("CreateProfessor() failed: %v", err)
	}
	return prof
}

// CreateCourse creates a course taught by prof, or unassigned if prof is nil.
func CreateCourse(t *testing.T, repo course.Repository, name, code string, prof *professor.Professor) course.Course {
	t.Helper()

	c := course.Course{Name: name, Code: code}
	if prof != nil {
		id := prof.ID
		c.ProfessorID = &id
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateQuestion(t *testing.T, repo question.Repository, text, typ string) question.Question {
	t.Helper()

	q, err := repo.CreateQuestion(context.Background(), question.Question{Text: text, Type: typ})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}

func CreateForm(t *testing.T, repo form.Repository, title string, isActive bool, questions ...question.Question) form.Form {
	t.Helper()

	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	f, err := repo.CreateForm(context.Background(), form.Form{
		Title:       title,
		QuestionIDs: ids,
		IsActive:    isActive,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateForm() failed: %v", err)
	}
	return f
}

// CreateEvaluation stores an evaluation with the given answers directly in repo.
func CreateEvaluation(
	t *testing.T,
	repo evaluation.Repository,
	student user.User,
	prof professor.Professor,
	crs course.Course,
	frm form.Form,
	answers ...evaluation.Answer,
) evaluation.Evaluation {
	t.Helper()

	formID := frm.ID
	e, err := repo.CreateEvaluation(context.Background(), evaluation.Evaluation{
		StudentID:   student.ID,
		ProfessorID: prof.ID,
		CourseID:    crs.ID,
		FormID:      &formID,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}
	return e
}

// RatingAnswer returns an answer rating question q with value.
func RatingAnswer(q question.Question, value int) evaluation.Answer {
	return evaluation.Answer{QuestionID: q.ID, Rating: &value}
}

func Int(i int) *int          { return &i }
func Bool(b bool) *bool       { return &b }
func String(s string) *string { return &s }
