package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/question"
)

var questionColumns = []string{"id", "text", "question_type"}

type questionRow struct {
	ID   int    `db:"id"`
	Text string `db:"text"`
	Type string `db:"question_type"`
}

type questionRepository struct {
	db *sqlx.DB
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *sqlx.DB) *questionRepository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) query(ctx context.Context, q sq.SelectBuilder) ([]question.Question, error) {
	var rows []questionRow
	if err := selectAll(ctx, repo.db, &rows, q.OrderBy("id")); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	qs := make([]question.Question, 0, len(rows))
	for _, r := range rows {
		qs = append(qs, question.Question(r))
	}
	return qs, nil
}

func (repo *questionRepository) CreateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	ins := psql.Insert("questions").Columns("text", "question_type").Values(q.Text, q.Type).Suffix("RETURNING id")
	if err := get(ctx, repo.db, &q.ID, ins); err != nil {
		return question.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *questionRepository) QueryQuestions(ctx context.Context, filter *question.QueryFilter) ([]question.Question, error) {
	q := psql.Select(questionColumns...).From("questions")
	if filter != nil {
		if filter.Type != "" {
			q = q.Where(sq.Eq{"question_type": filter.Type})
		}
		if filter.Search != "" {
			q = q.Where("text ILIKE ?", "%"+filter.Search+"%")
		}
	}
	return repo.query(ctx, q)
}

func (repo *questionRepository) GetQuestion(ctx context.Context, id int) (question.Question, error) {
	var r questionRow
	if err := get(ctx, repo.db, &r, psql.Select(questionColumns...).From("questions").Where(sq.Eq{"id": id})); err != nil {
		return question.Question{}, trapNoRowsErr(err, question.ErrNotFound, "finding question")
	}
	return question.Question(r), nil
}

func (repo *questionRepository) GetQuestions(ctx context.Context, ids ...int) ([]question.Question, error) {
	if len(ids) == 0 {
		return []question.Question{}, nil
	}
	return repo.query(ctx, psql.Select(questionColumns...).From("questions").Where(sq.Eq{"id": ids}))
}

func (repo *questionRepository) UpdateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	upd := psql.Update("questions").Set("text", q.Text).Set("question_type", q.Type).Where(sq.Eq{"id": q.ID})
	if err := execOne(ctx, repo.db, upd, question.ErrNotFound); err != nil {
		if err == question.ErrNotFound {
			return question.Question{}, err
		}
		return question.Question{}, errors.Wrap(err, "updating question")
	}
	return q, nil
}

// DeleteQuestion relies on the schema to cascade on answers and form memberships.
func (repo *questionRepository) DeleteQuestion(ctx context.Context, id int) error {
	err := execOne(ctx, repo.db, psql.Delete("questions").Where(sq.Eq{"id": id}), question.ErrNotFound)
	if err != nil && err != question.ErrNotFound {
		return errors.Wrap(err, "deleting question")
	}
	return err
}
