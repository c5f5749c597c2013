package professor

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/user"
)

type Professor struct {
	ID         int          `json:"id"`
	UserID     int          `json:"-"`
	User       user.Summary `json:"usuario"`
	EmployeeID string       `json:"id_empleado"`
	Department string       `json:"departamento"`
}

func (p Professor) FullName() string {
	return user.User{FirstName: p.User.FirstName, LastName: p.User.LastName}.FullName()
}

func (p Professor) String() string {
	if name := p.FullName(); name != "" {
		return name
	}
	return p.User.Username
}

// NewProfessor contains the information needed to create or replace a Professor.
type NewProfessor struct {
	UserID     int    `json:"usuario_id" validate:"required,gt=0"`
	EmployeeID string `json:"id_empleado" validate:"required,notblank,max=20"`
	Department string `json:"departamento" validate:"required,notblank,max=100"`
}

// Validate cleans and validates np. exclude is the Professor being replaced, if any.
func (np *NewProfessor) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface, exclude ...Professor) error {
	np.EmployeeID = core.CleanString(np.EmployeeID)
	np.Department = core.CleanString(np.Department)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, *np, exclude...)
}

type QueryFilter struct {
	Department string
	Search     string
}

func (qf *QueryFilter) Clean() {
	qf.Department = core.CleanString(qf.Department)
	qf.Search = core.CleanString(qf.Search)
}

// Stats is one row of the per professor statistics.
type Stats struct {
	ID             int     `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	NumEvaluations int     `json:"num_evaluaciones"`
	AverageRating  float64 `json:"promedio_general"`
}

// Rating is the average rating received by one professor.
type Rating struct {
	ProfessorID   int     `json:"profesor_id"`
	AverageRating float64 `json:"promedio_calificacion"`
}
