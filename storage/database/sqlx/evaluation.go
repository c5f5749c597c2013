package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/evaldocente/backend/core/evaluation"
)

const evaluationUniqueConstraint = "evaluations_unique_submission"

var (
	evaluationColumns = []string{"id", "student_id", "professor_id", "course_id", "form_id", "submitted_at"}
	answerColumns     = []string{
		"id", "evaluation_id", "question_id",
		"text_answer", "rating", "boolean_answer", "selection", "selections",
	}
)

type evaluationRow struct {
	ID          int       `db:"id"`
	StudentID   int       `db:"student_id"`
	ProfessorID int       `db:"professor_id"`
	CourseID    int       `db:"course_id"`
	FormID      null.Int  `db:"form_id"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type answerRow struct {
	ID            int            `db:"id"`
	EvaluationID  int            `db:"evaluation_id"`
	QuestionID    int            `db:"question_id"`
	TextAnswer    null.String    `db:"text_answer"`
	Rating        null.Int       `db:"rating"`
	BooleanAnswer null.Bool      `db:"boolean_answer"`
	Selection     null.String    `db:"selection"`
	Selections    pq.StringArray `db:"selections"`
}

func (r answerRow) answer() evaluation.Answer {
	return evaluation.Answer{
		ID:           r.ID,
		EvaluationID: r.EvaluationID,
		QuestionID:   r.QuestionID,
		Text:         r.TextAnswer.Ptr(),
		Rating:       r.Rating.Ptr(),
		Boolean:      r.BooleanAnswer.Ptr(),
		Selection:    r.Selection.Ptr(),
		Selections:   []string(r.Selections),
	}
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

// trapEvaluationErr maps the unique submission violation to evaluation.ErrDuplicate.
func trapEvaluationErr(err error, msg string) error {
	if constraint, ok := uniqueViolationOf(err); ok && constraint == evaluationUniqueConstraint {
		return evaluation.ErrDuplicate
	}
	return errors.Wrap(err, msg)
}

func insertAnswers(ctx context.Context, tx *sqlx.Tx, evaluationID int, answers []evaluation.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	ins := psql.Insert("answers").Columns(answerColumns[1:]...)
	for _, a := range answers {
		var sels pq.StringArray
		if a.Selections != nil {
			sels = pq.StringArray(a.Selections)
		}
		ins = ins.Values(
			evaluationID,
			a.QuestionID,
			null.StringFromPtr(a.Text),
			null.IntFromPtr(a.Rating),
			null.BoolFromPtr(a.Boolean),
			null.StringFromPtr(a.Selection),
			sels,
		)
	}
	if _, err := exec(ctx, tx, ins); err != nil {
		return errors.Wrap(err, "inserting answers")
	}
	return nil
}

func (repo *evaluationRepository) Exists(ctx context.Context, key evaluation.Key, excludedID int) (bool, error) {
	var exists bool
	q := psql.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM evaluations WHERE student_id = ? AND professor_id = ? AND course_id = ? AND form_id = ? AND id <> ?)",
		key.StudentID, key.ProfessorID, key.CourseID, key.FormID, excludedID,
	))
	if err := get(ctx, repo.db, &exists, q); err != nil {
		return false, errors.Wrap(err, "checking evaluation uniqueness")
	}
	return exists, nil
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := psql.Insert("evaluations").
			Columns(evaluationColumns[1:]...).
			Values(e.StudentID, e.ProfessorID, e.CourseID, null.IntFromPtr(e.FormID), e.SubmittedAt.UTC()).
			Suffix("RETURNING id")
		if err := get(ctx, tx, &e.ID, q); err != nil {
			return trapEvaluationErr(err, "inserting evaluation")
		}
		return insertAnswers(ctx, tx, e.ID, e.Answers)
	})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return repo.GetEvaluation(ctx, e.ID)
}

// withAnswers loads the answers of rows, keeping their order.
func (repo *evaluationRepository) withAnswers(ctx context.Context, rows []evaluationRow) ([]evaluation.Evaluation, error) {
	evals := make([]evaluation.Evaluation, 0, len(rows))
	if len(rows) == 0 {
		return evals, nil
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var answerRows []answerRow
	q := psql.Select(answerColumns...).From("answers").
		Where(sq.Eq{"evaluation_id": ids}).
		OrderBy("question_id")
	if err := selectAll(ctx, repo.db, &answerRows, q); err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}
	answers := make(map[int][]evaluation.Answer, len(rows))
	for _, ar := range answerRows {
		answers[ar.EvaluationID] = append(answers[ar.EvaluationID], ar.answer())
	}

	for _, r := range rows {
		evals = append(evals, evaluation.Evaluation{
			ID:          r.ID,
			StudentID:   r.StudentID,
			ProfessorID: r.ProfessorID,
			CourseID:    r.CourseID,
			FormID:      r.FormID.Ptr(),
			Answers:     answers[r.ID],
			SubmittedAt: r.SubmittedAt.UTC(),
		})
	}
	return evals, nil
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	q := psql.Select(evaluationColumns...).From("evaluations")
	if filter != nil {
		if filter.StudentID != 0 {
			q = q.Where(sq.Eq{"student_id": filter.StudentID})
		}
		if filter.ProfessorID != 0 {
			q = q.Where(sq.Eq{"professor_id": filter.ProfessorID})
		}
		if filter.CourseID != 0 {
			q = q.Where(sq.Eq{"course_id": filter.CourseID})
		}
		if filter.FormID != 0 {
			q = q.Where(sq.Eq{"form_id": filter.FormID})
		}
	}
	q = q.OrderBy("submitted_at DESC", "id DESC")

	var rows []evaluationRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	return repo.withAnswers(ctx, rows)
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id int) (evaluation.Evaluation, error) {
	var r evaluationRow
	if err := get(ctx, repo.db, &r, psql.Select(evaluationColumns...).From("evaluations").Where(sq.Eq{"id": id})); err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound, "finding evaluation")
	}
	evals, err := repo.withAnswers(ctx, []evaluationRow{r})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return evals[0], nil
}

func (repo *evaluationRepository) UpdateEvaluation(ctx context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := psql.Update("evaluations").
			Set("professor_id", e.ProfessorID).
			Set("course_id", e.CourseID).
			Set("form_id", null.IntFromPtr(e.FormID)).
			Where(sq.Eq{"id": e.ID})
		if err := execOne(ctx, tx, q, evaluation.ErrNotFound); err != nil {
			if err == evaluation.ErrNotFound {
				return err
			}
			return trapEvaluationErr(err, "updating evaluation")
		}
		if _, err := exec(ctx, tx, psql.Delete("answers").Where(sq.Eq{"evaluation_id": e.ID})); err != nil {
			return errors.Wrap(err, "deleting answers")
		}
		return insertAnswers(ctx, tx, e.ID, e.Answers)
	})
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	return repo.GetEvaluation(ctx, e.ID)
}

// DeleteEvaluation relies on the schema to cascade on the answers.
func (repo *evaluationRepository) DeleteEvaluation(ctx context.Context, id int) error {
	err := execOne(ctx, repo.db, psql.Delete("evaluations").Where(sq.Eq{"id": id}), evaluation.ErrNotFound)
	if err != nil && err != evaluation.ErrNotFound {
		return errors.Wrap(err, "deleting evaluation")
	}
	return err
}
