package form

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/question"
)

type Form struct {
	ID          int                 `json:"id"`
	Title       string              `json:"titulo"`
	Description *string             `json:"descripcion"`
	QuestionIDs []int               `json:"-"`
	Questions   []question.Question `json:"preguntas"`
	IsActive    bool                `json:"esta_activo"`
	CreatedAt   time.Time           `json:"fecha_creacion"` // UTC
}

func (f Form) String() string {
	return f.Title
}

// HasQuestion reports whether the question with id belongs to the form.
func (f Form) HasQuestion(id int) bool {
	for _, qid := range f.QuestionIDs {
		if qid == id {
			return true
		}
	}
	return false
}

// NewForm contains the information needed to create or replace a Form.
// A nil IsActive means active.
type NewForm struct {
	Title       string  `json:"titulo" validate:"required,notblank,max=200"`
	Description *string `json:"descripcion"`
	QuestionIDs []int   `json:"pregunta_ids" validate:"dive,gt=0"`
	IsActive    *bool   `json:"esta_activo"`
}

func (nf *NewForm) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nf.Title = core.CleanString(nf.Title)
	if nf.Description != nil {
		desc := core.CleanString(*nf.Description)
		nf.Description = &desc
	}
	nf.QuestionIDs = uniqueIDs(nf.QuestionIDs)

	if err := validate.Struct(nf); err != nil {
		return err
	}
	return svc.CheckQuestions(ctx, nf.QuestionIDs)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

type QueryFilter struct {
	IsActive *bool
}
