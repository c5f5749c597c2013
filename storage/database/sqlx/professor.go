package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
)

type professorRow struct {
	ID         int    `db:"id"`
	UserID     int    `db:"user_id"`
	EmployeeID string `db:"employee_id"`
	Department string `db:"department"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Email      string `db:"email"`
}

func (r professorRow) professor() professor.Professor {
	return professor.Professor{
		ID:         r.ID,
		UserID:     r.UserID,
		EmployeeID: r.EmployeeID,
		Department: r.Department,
		User: user.Summary{
			ID:        r.UserID,
			Username:  r.Username,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
		},
	}
}

type professorStatsRow struct {
	ID             int     `db:"id"`
	FirstName      string  `db:"first_name"`
	LastName       string  `db:"last_name"`
	NumEvaluations int     `db:"num_evaluations"`
	AverageRating  float64 `db:"average_rating"`
}

func selectProfessors() sq.SelectBuilder {
	return psql.
		Select("p.id", "p.user_id", "p.employee_id", "p.department", "u.username", "u.first_name", "u.last_name", "u.email").
		From("professors p").
		Join("users u ON u.id = p.user_id")
}

// trapProfessorErr maps the professors unique violations to their service errors.
func trapProfessorErr(err error, msg string) error {
	if constraint, ok := uniqueViolationOf(err); ok {
		if constraint == "professors_user_id_key" {
			return professor.ErrUserHasProfile
		}
		return professor.ErrEmployeeIDExists
	}
	return errors.Wrap(err, msg)
}

type professorRepository struct {
	db *sqlx.DB
}

var _ professor.Repository = (*professorRepository)(nil) // interface compliance check

func NewProfessorRepository(db *sqlx.DB) *professorRepository {
	return &professorRepository{db: db}
}

func (repo *professorRepository) CheckUniqueness(ctx context.Context, employeeID string, userID, excludedID int) error {
	var rows []professorRow
	q := psql.Select("employee_id", "user_id").From("professors").
		Where(sq.Or{sq.Eq{"employee_id": employeeID}, sq.Eq{"user_id": userID}}).
		Where(sq.NotEq{"id": excludedID})
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return errors.Wrap(err, "checking professor uniqueness")
	}
	for _, r := range rows {
		if r.EmployeeID == employeeID {
			return professor.ErrEmployeeIDExists
		}
	}
	if len(rows) > 0 {
		return professor.ErrUserHasProfile
	}
	return nil
}

func (repo *professorRepository) CreateProfessor(ctx context.Context, prof professor.Professor) (professor.Professor, error) {
	q := psql.Insert("professors").
		Columns("user_id", "employee_id", "department").
		Values(prof.UserID, prof.EmployeeID, prof.Department).
		Suffix("RETURNING id")
	if err := get(ctx, repo.db, &prof.ID, q); err != nil {
		return professor.Professor{}, trapProfessorErr(err, "inserting professor")
	}
	return repo.GetProfessor(ctx, prof.ID)
}

func (repo *professorRepository) QueryProfessors(ctx context.Context, filter *professor.QueryFilter) ([]professor.Professor, error) {
	q := selectProfessors()
	if filter != nil {
		if filter.Department != "" {
			q = q.Where("p.department ILIKE ?", filter.Department)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.Expr("u.username ILIKE ?", val),
				sq.Expr("u.first_name ILIKE ?", val),
				sq.Expr("u.last_name ILIKE ?", val),
				sq.Expr("p.employee_id ILIKE ?", val),
				sq.Expr("p.department ILIKE ?", val),
			})
		}
	}
	q = q.OrderBy("u.last_name", "u.first_name", "p.id")

	var rows []professorRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying professors")
	}
	profs := make([]professor.Professor, 0, len(rows))
	for _, r := range rows {
		profs = append(profs, r.professor())
	}
	return profs, nil
}

func (repo *professorRepository) GetProfessor(ctx context.Context, id int) (professor.Professor, error) {
	var r professorRow
	if err := get(ctx, repo.db, &r, selectProfessors().Where(sq.Eq{"p.id": id})); err != nil {
		return professor.Professor{}, trapNoRowsErr(err, professor.ErrNotFound, "finding professor")
	}
	return r.professor(), nil
}

func (repo *professorRepository) UpdateProfessor(ctx context.Context, prof professor.Professor) (professor.Professor, error) {
	q := psql.Update("professors").
		Set("user_id", prof.UserID).
		Set("employee_id", prof.EmployeeID).
		Set("department", prof.Department).
		Where(sq.Eq{"id": prof.ID})
	if err := execOne(ctx, repo.db, q, professor.ErrNotFound); err != nil {
		if err == professor.ErrNotFound {
			return professor.Professor{}, err
		}
		return professor.Professor{}, trapProfessorErr(err, "updating professor")
	}
	return repo.GetProfessor(ctx, prof.ID)
}

// DeleteProfessor relies on the schema: courses.professor_id is SET NULL, evaluations CASCADE.
func (repo *professorRepository) DeleteProfessor(ctx context.Context, id int) error {
	err := execOne(ctx, repo.db, psql.Delete("professors").Where(sq.Eq{"id": id}), professor.ErrNotFound)
	if err != nil && err != professor.ErrNotFound {
		return errors.Wrap(err, "deleting professor")
	}
	return err
}

func (repo *professorRepository) AverageRating(ctx context.Context, id int) (float64, error) {
	q := psql.Select("COALESCE(AVG(a.rating), 0)::float8").
		From("evaluations e").
		Join("answers a ON a.evaluation_id = e.id").
		Where(sq.Eq{"e.professor_id": id})

	var avg float64
	if err := get(ctx, repo.db, &avg, q); err != nil {
		return 0, errors.Wrap(err, "computing professor average rating")
	}
	return avg, nil
}

func (repo *professorRepository) QueryStats(ctx context.Context) ([]professor.Stats, error) {
	q := psql.
		Select(
			"p.id", "u.first_name", "u.last_name",
			"COUNT(DISTINCT e.id) AS num_evaluations",
			"COALESCE(AVG(a.rating), 0)::float8 AS average_rating",
		).
		From("professors p").
		Join("users u ON u.id = p.user_id").
		LeftJoin("evaluations e ON e.professor_id = p.id").
		LeftJoin("answers a ON a.evaluation_id = e.id").
		GroupBy("p.id", "u.first_name", "u.last_name").
		OrderBy("u.last_name", "u.first_name", "p.id")

	var rows []professorStatsRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying professor stats")
	}
	stats := make([]professor.Stats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, professor.Stats(r))
	}
	return stats, nil
}
