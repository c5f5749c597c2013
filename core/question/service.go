package question

import (
	"context"

	"github.com/kat-co/vala"

	"github.com/evaldocente/backend/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("question")
)

type (
	Repository interface {
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions returns the questions ordered by ID.
		// QueryFilter.Search does a case-insensitive match on Question.Text.
		QueryQuestions(ctx context.Context, filter *QueryFilter) ([]Question, error)
		GetQuestion(ctx context.Context, id int) (Question, error)
		// GetQuestions returns the questions with the given ids, ordered by ID. Unknown ids are skipped.
		GetQuestions(ctx context.Context, ids ...int) ([]Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nq NewQuestion) (Question, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Question, error)
		GetByID(ctx context.Context, id int) (Question, error)
		GetMany(ctx context.Context, ids ...int) ([]Question, error)
		Update(ctx context.Context, q Question, nq NewQuestion) (Question, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nq NewQuestion) (Question, error) {
	return svc.repo.CreateQuestion(ctx, Question{Text: nq.Text, Type: nq.Type})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Question, error) {
	if id <= 0 {
		return Question{}, ErrNotFound
	}
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *Service) GetMany(ctx context.Context, ids ...int) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	return svc.repo.GetQuestions(ctx, ids...)
}

func (svc *Service) Update(ctx context.Context, q Question, nq NewQuestion) (Question, error) {
	q.Text = nq.Text
	q.Type = nq.Type
	return svc.repo.UpdateQuestion(ctx, q)
}

// Delete removes the question, its answers and its form memberships.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteQuestion(ctx, id)
}
