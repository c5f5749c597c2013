package evaluation

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
)

const receiptTemplate = "evaluation_receipt"

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("evaluation")
	ErrDuplicate = errors.New("Ya has enviado una evaluación para este profesor y curso con este formulario.")
)

type (
	Repository interface {
		// Exists reports whether an evaluation other than excludedID already holds key.
		Exists(ctx context.Context, key Key, excludedID int) (bool, error)
		// CreateEvaluation stores the evaluation and its answers in one transaction.
		// It returns ErrDuplicate if the key is already taken.
		CreateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
		// QueryEvaluations returns the evaluations newest first, each with its answers ordered by question ID.
		QueryEvaluations(ctx context.Context, filter *QueryFilter) ([]Evaluation, error)
		GetEvaluation(ctx context.Context, id int) (Evaluation, error)
		// UpdateEvaluation replaces the evaluation fields and all of its answers in one transaction.
		// It returns ErrDuplicate if the new key is already taken.
		UpdateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
		DeleteEvaluation(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckSubmission(ctx context.Context, studentID int, ne NewEvaluation, exclude ...Evaluation) error
		Submit(ctx context.Context, student user.User, ne NewEvaluation) (Evaluation, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Evaluation, error)
		GetByID(ctx context.Context, id int) (Evaluation, error)
		Update(ctx context.Context, e Evaluation, ne NewEvaluation) (Evaluation, error)
		Delete(ctx context.Context, id int) error
		Reports(ctx context.Context) (Report, error)
	}

	Service struct {
		repo       Repository
		users      user.ServiceInterface
		professors professor.ServiceInterface
		courses    course.ServiceInterface
		forms      form.ServiceInterface
		questions  question.ServiceInterface
		email      core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	users user.ServiceInterface,
	professors professor.ServiceInterface,
	courses course.ServiceInterface,
	forms form.ServiceInterface,
	questions question.ServiceInterface,
	email core.EmailService,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(professors, "professors"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(forms, "forms"),
		vala.IsNotNil(questions, "questions"),
		vala.IsNotNil(email, "email"),
	).CheckAndPanic()

	return &Service{
		repo:       repo,
		users:      users,
		professors: professors,
		courses:    courses,
		forms:      forms,
		questions:  questions,
		email:      email,
	}
}

func invalidRef(field, resource string) error {
	return core.NewValidationError(nil, core.FieldError{
		Field: field,
		Error: "invalid pk - " + resource + " does not exist",
	})
}

// CheckSubmission checks ne against the stored data: references exist, the form is active,
// every answer targets a distinct question of the form with a payload matching the question
// type, and the student has not already evaluated the professor and course with the form.
func (svc *Service) CheckSubmission(ctx context.Context, studentID int, ne NewEvaluation, exclude ...Evaluation) error {
	if _, err := svc.professors.GetByID(ctx, ne.ProfessorID); err != nil {
		if core.IsNotFound(err) {
			return invalidRef("profesor_id", "professor")
		}
		return errors.Wrap(err, "finding professor by ID")
	}
	if _, err := svc.courses.GetByID(ctx, ne.CourseID); err != nil {
		if core.IsNotFound(err) {
			return invalidRef("curso_id", "course")
		}
		return errors.Wrap(err, "finding course by ID")
	}
	frm, err := svc.forms.GetByID(ctx, ne.FormID)
	if err != nil {
		if core.IsNotFound(err) {
			return invalidRef("formulario_evaluacion_id", "evaluation form")
		}
		return errors.Wrap(err, "finding form by ID")
	}
	if !frm.IsActive {
		return core.NewValidationError(nil, core.FieldError{
			Field: "formulario_evaluacion_id",
			Error: "the evaluation form is not active",
		})
	}

	questions := make(map[int]question.Question, len(frm.Questions))
	for _, q := range frm.Questions {
		questions[q.ID] = q
	}
	answered := make(map[int]bool, len(ne.Answers))
	for i, na := range ne.Answers {
		prefix := fmt.Sprintf("respuestas[%d].", i)
		if answered[na.QuestionID] {
			return core.NewValidationError(nil, core.FieldError{Field: prefix + "pregunta_id", Error: "question answered more than once"})
		}
		answered[na.QuestionID] = true

		q, ok := questions[na.QuestionID]
		if !ok {
			return core.NewValidationError(nil, core.FieldError{Field: prefix + "pregunta_id", Error: "question does not belong to the evaluation form"})
		}
		if field, msg := na.check(q); field != "" {
			return core.NewValidationError(nil, core.FieldError{Field: prefix + field, Error: msg})
		}
	}

	var excludedID int
	if len(exclude) > 0 {
		excludedID = exclude[0].ID
	}
	key := Key{StudentID: studentID, ProfessorID: ne.ProfessorID, CourseID: ne.CourseID, FormID: ne.FormID}
	exists, err := svc.repo.Exists(ctx, key, excludedID)
	if err != nil {
		return errors.Wrap(err, "checking evaluation uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrDuplicate)
	}
	return nil
}

func newAnswers(nas []NewAnswer) []Answer {
	answers := make([]Answer, len(nas))
	for i, na := range nas {
		answers[i] = Answer{
			QuestionID: na.QuestionID,
			Text:       na.Text,
			Rating:     na.Rating,
			Boolean:    na.Boolean,
			Selection:  na.Selection,
			Selections: na.Selections,
		}
	}
	return answers
}

// Submit stores the student's evaluation with all of its answers, or nothing if any of them is invalid.
// A receipt is emailed to the student on success.
func (svc *Service) Submit(ctx context.Context, student user.User, ne NewEvaluation) (Evaluation, error) {
	if err := svc.CheckSubmission(ctx, student.ID, ne); err != nil {
		return Evaluation{}, err
	}

	formID := ne.FormID
	e, err := svc.repo.CreateEvaluation(ctx, Evaluation{
		StudentID:   student.ID,
		ProfessorID: ne.ProfessorID,
		CourseID:    ne.CourseID,
		FormID:      &formID,
		Answers:     newAnswers(ne.Answers),
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrDuplicate {
			return Evaluation{}, core.NewValidationError(ErrDuplicate)
		}
		return Evaluation{}, err
	}

	e, err = svc.hydrate(ctx, e, newHydrationCache())
	if err != nil {
		return Evaluation{}, err
	}
	svc.sendReceipt(student, e)
	return e, nil
}

func (svc *Service) sendReceipt(student user.User, e Evaluation) {
	if student.Email == "" {
		return
	}
	data := receiptData{
		StudentName:   student.String(),
		ProfessorName: e.Professor.String(),
		CourseName:    e.Course.String(),
		AnswerCount:   len(e.Answers),
		SubmittedAt:   e.SubmittedAt.Format("2006-01-02 15:04 MST"),
	}
	if e.Form != nil {
		data.FormTitle = e.Form.Title
	}
	svc.email.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.FullName(), Address: student.Email}},
		Subject:      "Evaluación recibida",
		TemplateName: receiptTemplate,
		TemplateData: data,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Evaluation, error) {
	evals, err := svc.repo.QueryEvaluations(ctx, filter)
	if err != nil {
		return nil, err
	}
	cache := newHydrationCache()
	for i := range evals {
		if evals[i], err = svc.hydrate(ctx, evals[i], cache); err != nil {
			return nil, err
		}
	}
	return evals, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Evaluation, error) {
	if id <= 0 {
		return Evaluation{}, ErrNotFound
	}
	e, err := svc.repo.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	return svc.hydrate(ctx, e, newHydrationCache())
}

// Update replaces e and its answers with ne. The submitting student and date are kept.
func (svc *Service) Update(ctx context.Context, e Evaluation, ne NewEvaluation) (Evaluation, error) {
	if err := svc.CheckSubmission(ctx, e.StudentID, ne, e); err != nil {
		return Evaluation{}, err
	}

	formID := ne.FormID
	e.ProfessorID = ne.ProfessorID
	e.CourseID = ne.CourseID
	e.FormID = &formID
	e.Answers = newAnswers(ne.Answers)
	for i := range e.Answers {
		e.Answers[i].EvaluationID = e.ID
	}

	e, err := svc.repo.UpdateEvaluation(ctx, e)
	if err != nil {
		if errors.Cause(err) == ErrDuplicate {
			return Evaluation{}, core.NewValidationError(ErrDuplicate)
		}
		return Evaluation{}, err
	}
	return svc.hydrate(ctx, e, newHydrationCache())
}

// Delete removes the evaluation and its answers.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteEvaluation(ctx, id)
}

// Reports returns the number of evaluations per professor and the statistics per course.
// Course averages are not rounded.
func (svc *Service) Reports(ctx context.Context) (Report, error) {
	profStats, err := svc.professors.Stats(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading professor stats")
	}
	courseStats, err := svc.courses.Stats(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "loading course stats")
	}

	rep := Report{
		Professors: make([]ProfessorReport, len(profStats)),
		Courses:    courseStats,
	}
	for i, ps := range profStats {
		rep.Professors[i] = ProfessorReport{
			ID:             ps.ID,
			FirstName:      ps.FirstName,
			LastName:       ps.LastName,
			NumEvaluations: ps.NumEvaluations,
		}
	}
	if rep.Courses == nil {
		rep.Courses = []course.Stats{}
	}
	return rep, nil
}
