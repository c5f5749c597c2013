package question

import (
	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
)

// Question types
const (
	TypeText           = "texto"
	TypeRating         = "calificacion"
	TypeSingleChoice   = "seleccion_unica"
	TypeMultipleChoice = "seleccion_multiple"
	TypeBoolean        = "booleano"

	MinRating = 1
	MaxRating = 5
)

var Types = []Type{
	{Name: "Entrada de Texto Libre", Value: TypeText},
	{Name: "Escala de Calificación (1-5)", Value: TypeRating},
	{Name: "Selección Única", Value: TypeSingleChoice},
	{Name: "Selección Múltiple", Value: TypeMultipleChoice},
	{Name: "Sí/No o Verdadero/Falso", Value: TypeBoolean},
}

type Type struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func IsValidType(t string) bool {
	for _, typ := range Types {
		if typ.Value == t {
			return true
		}
	}
	return false
}

type Question struct {
	ID   int    `json:"id"`
	Text string `json:"texto"`
	Type string `json:"tipo_pregunta"`
}

func (q Question) String() string {
	return core.Truncate(q.Text, 70)
}

// NewQuestion contains the information needed to create or replace a Question.
type NewQuestion struct {
	Text string `json:"texto" validate:"required,notblank"`
	Type string `json:"tipo_pregunta" validate:"required,questiontype"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	nq.Type = core.CleanString(nq.Type, true /* lower */)
	return validate.Struct(nq)
}

type QueryFilter struct {
	Type   string
	Search string
}

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}
