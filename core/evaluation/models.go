package evaluation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
)

type Evaluation struct {
	ID          int                 `json:"id"`
	StudentID   int                 `json:"-"`
	ProfessorID int                 `json:"-"`
	CourseID    int                 `json:"-"`
	FormID      *int                `json:"-"`
	Student     user.Summary        `json:"estudiante"`
	Professor   professor.Professor `json:"profesor"`
	Course      course.Course       `json:"curso"`
	Form        *form.Form          `json:"formulario_evaluacion"`
	Answers     []Answer            `json:"respuestas"`
	SubmittedAt time.Time           `json:"fecha_envio"` // UTC
}

// OwnerID is the student that submitted the evaluation.
func (e Evaluation) OwnerID() int {
	return e.StudentID
}

func (e Evaluation) String() string {
	return fmt.Sprintf("Evaluación de %s por %s para %s", e.Professor, e.Student.Username, e.Course.Name)
}

type Answer struct {
	ID           int               `json:"id"`
	EvaluationID int               `json:"evaluacion"`
	QuestionID   int               `json:"-"`
	Question     question.Question `json:"pregunta"`
	Text         *string           `json:"respuesta_texto"`
	Rating       *int              `json:"respuesta_calificacion"`
	Boolean      *bool             `json:"respuesta_booleana"`
	Selection    *string           `json:"respuesta_seleccion"`
	Selections   []string          `json:"respuesta_multiples_selecciones"`
}

// Content is the answer payload as text.
func (a Answer) Content() string {
	switch {
	case a.Text != nil && *a.Text != "":
		return core.Truncate(*a.Text, 30)
	case a.Rating != nil:
		return strconv.Itoa(*a.Rating)
	case a.Boolean != nil:
		if *a.Boolean {
			return "Sí"
		}
		return "No"
	case a.Selection != nil && *a.Selection != "":
		return *a.Selection
	case len(a.Selections) > 0:
		return strings.Join(a.Selections, ", ")
	}
	return ""
}

func (a Answer) String() string {
	return fmt.Sprintf("Respuesta a '%s': %s", core.Truncate(a.Question.Text, 50), a.Content())
}

// Key identifies the single evaluation a student may submit per professor, course and form.
type Key struct {
	StudentID   int
	ProfessorID int
	CourseID    int
	FormID      int
}

func (e Evaluation) Key() Key {
	k := Key{StudentID: e.StudentID, ProfessorID: e.ProfessorID, CourseID: e.CourseID}
	if e.FormID != nil {
		k.FormID = *e.FormID
	}
	return k
}

// NewAnswer is the answer to one question of a NewEvaluation.
// Only the payload field matching the question type may be set.
type NewAnswer struct {
	QuestionID int      `json:"pregunta_id" validate:"required,gt=0"`
	Text       *string  `json:"respuesta_texto"`
	Rating     *int     `json:"respuesta_calificacion"`
	Boolean    *bool    `json:"respuesta_booleana"`
	Selection  *string  `json:"respuesta_seleccion" validate:"omitempty,max=255"`
	Selections []string `json:"respuesta_multiples_selecciones" validate:"omitempty,dive,notblank"`
}

// NewEvaluation contains the information needed to submit or replace an Evaluation with its answers.
type NewEvaluation struct {
	ProfessorID int         `json:"profesor_id" validate:"required,gt=0"`
	CourseID    int         `json:"curso_id" validate:"required,gt=0"`
	FormID      int         `json:"formulario_evaluacion_id" validate:"required,gt=0"`
	Answers     []NewAnswer `json:"respuestas" validate:"required,dive"`
}

// Validate checks the shape of the payload. References and answer types are checked on submission.
func (ne *NewEvaluation) Validate(validate *validator.Validate) error {
	for i := range ne.Answers {
		if ne.Answers[i].Selection != nil {
			sel := core.CleanString(*ne.Answers[i].Selection)
			ne.Answers[i].Selection = &sel
		}
	}
	return validate.Struct(ne)
}

// check returns the payload field and message of the first mismatch between na and q, if any.
func (na NewAnswer) check(q question.Question) (string, string) {
	payload := []struct {
		field string
		set   bool
	}{
		{"respuesta_texto", na.Text != nil},
		{"respuesta_calificacion", na.Rating != nil},
		{"respuesta_booleana", na.Boolean != nil},
		{"respuesta_seleccion", na.Selection != nil},
		{"respuesta_multiples_selecciones", na.Selections != nil},
	}

	var want string
	switch q.Type {
	case question.TypeText:
		want = "respuesta_texto"
	case question.TypeRating:
		want = "respuesta_calificacion"
		if na.Rating != nil && (*na.Rating < question.MinRating || *na.Rating > question.MaxRating) {
			return want, fmt.Sprintf("must be between %d and %d", question.MinRating, question.MaxRating)
		}
	case question.TypeBoolean:
		want = "respuesta_booleana"
	case question.TypeSingleChoice:
		want = "respuesta_seleccion"
		if na.Selection != nil && *na.Selection == "" {
			return want, "may not be blank"
		}
	case question.TypeMultipleChoice:
		want = "respuesta_multiples_selecciones"
		if na.Selections != nil && len(na.Selections) == 0 {
			return want, "must contain at least one selection"
		}
	default:
		return "pregunta_id", "unknown question type " + q.Type
	}

	for _, p := range payload {
		if p.field == want && !p.set {
			return want, "is required for " + q.Type + " questions"
		}
	}
	for _, p := range payload {
		if p.set && p.field != want {
			return p.field, "is not allowed for " + q.Type + " questions"
		}
	}
	return "", ""
}

type QueryFilter struct {
	StudentID   int
	ProfessorID int
	CourseID    int
	FormID      int
}

// ProfessorReport is one row of the professors section of Report.
type ProfessorReport struct {
	ID             int    `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	NumEvaluations int    `json:"total_evaluaciones"`
}

type Report struct {
	Professors []ProfessorReport `json:"reporte_profesores"`
	Courses    []course.Stats    `json:"reporte_cursos"`
}

type receiptData struct {
	StudentName   string
	ProfessorName string
	CourseName    string
	FormTitle     string
	AnswerCount   int
	SubmittedAt   string
}
