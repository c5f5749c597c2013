package form

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/question"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("evaluation form")
)

type (
	Repository interface {
		CreateForm(ctx context.Context, f Form) (Form, error)
		// QueryForms returns the forms newest first, with their QuestionIDs.
		QueryForms(ctx context.Context, filter *QueryFilter) ([]Form, error)
		GetForm(ctx context.Context, id int) (Form, error)
		// UpdateForm replaces the form fields and its question set.
		UpdateForm(ctx context.Context, f Form) (Form, error)
		DeleteForm(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckQuestions(ctx context.Context, ids []int) error
		Create(ctx context.Context, nf NewForm) (Form, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Form, error)
		// Available returns the active forms.
		Available(ctx context.Context) ([]Form, error)
		GetByID(ctx context.Context, id int) (Form, error)
		Update(ctx context.Context, f Form, nf NewForm) (Form, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo      Repository
		questions question.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, questions question.ServiceInterface) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(questions, "questions"),
	).CheckAndPanic()

	return &Service{repo: repo, questions: questions}
}

// CheckQuestions returns a validation error if one of ids is not an existing question.
func (svc *Service) CheckQuestions(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	qs, err := svc.questions.GetMany(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "loading questions")
	}
	found := make(map[int]bool, len(qs))
	for _, q := range qs {
		found[q.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "pregunta_ids",
				Error: fmt.Sprintf("invalid pk %d - question does not exist", id),
			})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nf NewForm) (Form, error) {
	f := Form{
		Title:       nf.Title,
		Description: nf.Description,
		QuestionIDs: nf.QuestionIDs,
		IsActive:    nf.IsActive == nil || *nf.IsActive,
		CreatedAt:   time.Now().UTC(),
	}
	f, err := svc.repo.CreateForm(ctx, f)
	if err != nil {
		return Form{}, err
	}
	return svc.hydrate(ctx, f)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Form, error) {
	forms, err := svc.repo.QueryForms(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range forms {
		if forms[i], err = svc.hydrate(ctx, forms[i]); err != nil {
			return nil, err
		}
	}
	return forms, nil
}

func (svc *Service) Available(ctx context.Context) ([]Form, error) {
	active := true
	return svc.Query(ctx, &QueryFilter{IsActive: &active})
}

func (svc *Service) GetByID(ctx context.Context, id int) (Form, error) {
	if id <= 0 {
		return Form{}, ErrNotFound
	}
	f, err := svc.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}
	return svc.hydrate(ctx, f)
}

func (svc *Service) Update(ctx context.Context, f Form, nf NewForm) (Form, error) {
	f.Title = nf.Title
	f.Description = nf.Description
	f.QuestionIDs = nf.QuestionIDs
	if nf.IsActive != nil {
		f.IsActive = *nf.IsActive
	}
	f, err := svc.repo.UpdateForm(ctx, f)
	if err != nil {
		return Form{}, err
	}
	return svc.hydrate(ctx, f)
}

// Delete removes the form. Evaluations made with it are kept without form.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteForm(ctx, id)
}

func (svc *Service) hydrate(ctx context.Context, f Form) (Form, error) {
	qs, err := svc.questions.GetMany(ctx, f.QuestionIDs...)
	if err != nil {
		return Form{}, errors.Wrapf(err, "loading questions of form %d", f.ID)
	}
	f.Questions = qs
	f.QuestionIDs = make([]int, len(qs))
	for i, q := range qs {
		f.QuestionIDs[i] = q.ID
	}
	return f, nil
}
