package course

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/professor"
)

type Course struct {
	ID          int                  `json:"id"`
	Name        string               `json:"nombre"`
	Code        string               `json:"codigo"`
	ProfessorID *int                 `json:"-"`
	Professor   *professor.Professor `json:"profesor"`
}

func (c Course) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Code)
}

// NewCourse contains the information needed to create or replace a Course.
// A nil ProfessorID leaves the course unassigned.
type NewCourse struct {
	Name        string `json:"nombre" validate:"required,notblank,max=200"`
	Code        string `json:"codigo" validate:"required,notblank,max=50"`
	ProfessorID *int   `json:"profesor_id" validate:"omitempty,gt=0"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface, exclude ...Course) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckReferences(ctx, *nc, exclude...)
}

type QueryFilter struct {
	Search      string
	ProfessorID int
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Stats is one row of the per course statistics.
type Stats struct {
	ID             int     `json:"id"`
	Name           string  `json:"nombre"`
	Code           string  `json:"codigo"`
	AverageRating  float64 `json:"promedio_calificacion_curso"`
	NumEvaluations int     `json:"total_evaluaciones_curso"`
}
