package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/evaldocente/backend/core/course"
)

var courseColumns = []string{"id", "name", "code", "professor_id"}

type courseRow struct {
	ID          int      `db:"id"`
	Name        string   `db:"name"`
	Code        string   `db:"code"`
	ProfessorID null.Int `db:"professor_id"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		ProfessorID: r.ProfessorID.Ptr(),
	}
}

type courseStatsRow struct {
	ID             int     `db:"id"`
	Name           string  `db:"name"`
	Code           string  `db:"code"`
	AverageRating  float64 `db:"average_rating"`
	NumEvaluations int     `db:"num_evaluations"`
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckUniqueness(ctx context.Context, code string, excludedID int) error {
	var exists bool
	q := psql.Select().Column(sq.Expr("EXISTS (SELECT 1 FROM courses WHERE code = ? AND id <> ?)", code, excludedID))
	if err := get(ctx, repo.db, &exists, q); err != nil {
		return errors.Wrap(err, "checking course uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := psql.Insert("courses").
		Columns("name", "code", "professor_id").
		Values(c.Name, c.Code, null.IntFromPtr(c.ProfessorID)).
		Suffix("RETURNING id")
	if err := get(ctx, repo.db, &c.ID, q); err != nil {
		if _, ok := uniqueViolationOf(err); ok {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	q := psql.Select(courseColumns...).From("courses")
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{sq.Expr("name ILIKE ?", val), sq.Expr("code ILIKE ?", val)})
		}
		if filter.ProfessorID != 0 {
			q = q.Where(sq.Eq{"professor_id": filter.ProfessorID})
		}
	}
	q = q.OrderBy("name", "id")

	var rows []courseRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var r courseRow
	if err := get(ctx, repo.db, &r, psql.Select(courseColumns...).From("courses").Where(sq.Eq{"id": id})); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return r.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := psql.Update("courses").
		Set("name", c.Name).
		Set("code", c.Code).
		Set("professor_id", null.IntFromPtr(c.ProfessorID)).
		Where(sq.Eq{"id": c.ID})
	if err := execOne(ctx, repo.db, q, course.ErrNotFound); err != nil {
		if _, ok := uniqueViolationOf(err); ok {
			return course.Course{}, course.ErrCodeExists
		}
		if err == course.ErrNotFound {
			return course.Course{}, err
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.GetCourse(ctx, c.ID)
}

// DeleteCourse relies on the schema to cascade on the course evaluations.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id int) error {
	err := execOne(ctx, repo.db, psql.Delete("courses").Where(sq.Eq{"id": id}), course.ErrNotFound)
	if err != nil && err != course.ErrNotFound {
		return errors.Wrap(err, "deleting course")
	}
	return err
}

func (repo *courseRepository) QueryStats(ctx context.Context) ([]course.Stats, error) {
	q := psql.
		Select(
			"c.id", "c.name", "c.code",
			"COALESCE(AVG(a.rating), 0)::float8 AS average_rating",
			"COUNT(DISTINCT e.id) AS num_evaluations",
		).
		From("courses c").
		LeftJoin("evaluations e ON e.course_id = c.id").
		LeftJoin("answers a ON a.evaluation_id = e.id").
		GroupBy("c.id", "c.name", "c.code").
		OrderBy("c.name", "c.id")

	var rows []courseStatsRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying course stats")
	}
	stats := make([]course.Stats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, course.Stats(r))
	}
	return stats, nil
}
