package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/evaldocente/backend/core/form"
)

var formColumns = []string{"id", "title", "description", "is_active", "created_at"}

type formRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
}

type formQuestionRow struct {
	FormID     int `db:"form_id"`
	QuestionID int `db:"question_id"`
}

type formRepository struct {
	db *sqlx.DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *sqlx.DB) *formRepository {
	return &formRepository{db: db}
}

// setQuestions replaces the question set of the form with id.
func setQuestions(ctx context.Context, tx *sqlx.Tx, id int, questionIDs []int) error {
	if _, err := exec(ctx, tx, psql.Delete("evaluation_form_questions").Where(sq.Eq{"form_id": id})); err != nil {
		return errors.Wrap(err, "clearing form questions")
	}
	if len(questionIDs) == 0 {
		return nil
	}
	ins := psql.Insert("evaluation_form_questions").Columns("form_id", "question_id")
	for _, qid := range questionIDs {
		ins = ins.Values(id, qid)
	}
	if _, err := exec(ctx, tx, ins); err != nil {
		return errors.Wrap(err, "inserting form questions")
	}
	return nil
}

// withQuestions loads the QuestionIDs of rows, keeping their order.
func (repo *formRepository) withQuestions(ctx context.Context, rows []formRow) ([]form.Form, error) {
	forms := make([]form.Form, 0, len(rows))
	if len(rows) == 0 {
		return forms, nil
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var links []formQuestionRow
	q := psql.Select("form_id", "question_id").From("evaluation_form_questions").
		Where(sq.Eq{"form_id": ids}).
		OrderBy("question_id")
	if err := selectAll(ctx, repo.db, &links, q); err != nil {
		return nil, errors.Wrap(err, "querying form questions")
	}
	questionIDs := make(map[int][]int, len(rows))
	for _, l := range links {
		questionIDs[l.FormID] = append(questionIDs[l.FormID], l.QuestionID)
	}

	for _, r := range rows {
		qids := questionIDs[r.ID]
		if qids == nil {
			qids = []int{}
		}
		forms = append(forms, form.Form{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description.Ptr(),
			QuestionIDs: qids,
			IsActive:    r.IsActive,
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return forms, nil
}

func (repo *formRepository) CreateForm(ctx context.Context, f form.Form) (form.Form, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := psql.Insert("evaluation_forms").
			Columns("title", "description", "is_active", "created_at").
			Values(f.Title, null.StringFromPtr(f.Description), f.IsActive, f.CreatedAt.UTC()).
			Suffix("RETURNING id")
		if err := get(ctx, tx, &f.ID, q); err != nil {
			return errors.Wrap(err, "inserting form")
		}
		return setQuestions(ctx, tx, f.ID, f.QuestionIDs)
	})
	if err != nil {
		return form.Form{}, err
	}
	return repo.GetForm(ctx, f.ID)
}

func (repo *formRepository) QueryForms(ctx context.Context, filter *form.QueryFilter) ([]form.Form, error) {
	q := psql.Select(formColumns...).From("evaluation_forms")
	if filter != nil && filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	q = q.OrderBy("created_at DESC", "id DESC")

	var rows []formRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying forms")
	}
	return repo.withQuestions(ctx, rows)
}

func (repo *formRepository) GetForm(ctx context.Context, id int) (form.Form, error) {
	var r formRow
	if err := get(ctx, repo.db, &r, psql.Select(formColumns...).From("evaluation_forms").Where(sq.Eq{"id": id})); err != nil {
		return form.Form{}, trapNoRowsErr(err, form.ErrNotFound, "finding form")
	}
	forms, err := repo.withQuestions(ctx, []formRow{r})
	if err != nil {
		return form.Form{}, err
	}
	return forms[0], nil
}

func (repo *formRepository) UpdateForm(ctx context.Context, f form.Form) (form.Form, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := psql.Update("evaluation_forms").
			Set("title", f.Title).
			Set("description", null.StringFromPtr(f.Description)).
			Set("is_active", f.IsActive).
			Where(sq.Eq{"id": f.ID})
		if err := execOne(ctx, tx, q, form.ErrNotFound); err != nil {
			return err
		}
		return setQuestions(ctx, tx, f.ID, f.QuestionIDs)
	})
	if err != nil {
		if err == form.ErrNotFound {
			return form.Form{}, err
		}
		return form.Form{}, errors.Wrap(err, "updating form")
	}
	return repo.GetForm(ctx, f.ID)
}

// DeleteForm relies on the schema: memberships CASCADE, evaluations.form_id is SET NULL.
func (repo *formRepository) DeleteForm(ctx context.Context, id int) error {
	err := execOne(ctx, repo.db, psql.Delete("evaluation_forms").Where(sq.Eq{"id": id}), form.ErrNotFound)
	if err != nil && err != form.ErrNotFound {
		return errors.Wrap(err, "deleting form")
	}
	return err
}
