package professor

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("professor")
	ErrEmployeeIDExists = errors.New("a professor with this employee id already exists")
	ErrUserHasProfile   = errors.New("this user already has a professor profile")
	errInvalidUser      = "invalid pk - user does not exist"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmployeeIDExists or ErrUserHasProfile when a professor,
		// other than excludedID, already holds employeeID or userID.
		CheckUniqueness(ctx context.Context, employeeID string, userID, excludedID int) error
		CreateProfessor(ctx context.Context, prof Professor) (Professor, error)
		// QueryProfessors returns the professors ordered by last name, first name.
		QueryProfessors(ctx context.Context, filter *QueryFilter) ([]Professor, error)
		GetProfessor(ctx context.Context, id int) (Professor, error)
		UpdateProfessor(ctx context.Context, prof Professor) (Professor, error)
		DeleteProfessor(ctx context.Context, id int) error
		// AverageRating is the mean of every rating answer of the evaluations received by the professor, 0 if none.
		AverageRating(ctx context.Context, id int) (float64, error)
		// QueryStats returns one row per professor: distinct evaluations received and average rating (0 if none).
		QueryStats(ctx context.Context) ([]Stats, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, np NewProfessor, exclude ...Professor) error
		Create(ctx context.Context, np NewProfessor) (Professor, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Professor, error)
		GetByID(ctx context.Context, id int) (Professor, error)
		Update(ctx context.Context, prof Professor, np NewProfessor) (Professor, error)
		Delete(ctx context.Context, id int) error
		AverageRating(ctx context.Context, id int) (Rating, error)
		Stats(ctx context.Context) ([]Stats, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserGetter
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, users UserGetter) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()

	return &Service{repo: repo, users: users}
}

func (svc *Service) CheckUniqueness(ctx context.Context, np NewProfessor, exclude ...Professor) error {
	if _, err := svc.users.GetByID(ctx, np.UserID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(nil, core.FieldError{Field: "usuario_id", Error: errInvalidUser})
		}
		return errors.Wrap(err, "finding user by ID")
	}

	var excludedID int
	if len(exclude) > 0 {
		excludedID = exclude[0].ID
	}
	if err := svc.repo.CheckUniqueness(ctx, np.EmployeeID, np.UserID, excludedID); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrEmployeeIDExists:
			field = "id_empleado"
		case ErrUserHasProfile:
			field = "usuario_id"
		default:
			return errors.Wrap(err, "checking professor uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, np NewProfessor) (Professor, error) {
	return svc.repo.CreateProfessor(ctx, Professor{
		UserID:     np.UserID,
		EmployeeID: np.EmployeeID,
		Department: np.Department,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Professor, error) {
	return svc.repo.QueryProfessors(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Professor, error) {
	if id <= 0 {
		return Professor{}, ErrNotFound
	}
	return svc.repo.GetProfessor(ctx, id)
}

func (svc *Service) Update(ctx context.Context, prof Professor, np NewProfessor) (Professor, error) {
	prof.UserID = np.UserID
	prof.EmployeeID = np.EmployeeID
	prof.Department = np.Department
	return svc.repo.UpdateProfessor(ctx, prof)
}

// Delete removes the professor and the evaluations it received; its courses are kept without professor.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteProfessor(ctx, id)
}

// AverageRating returns the professor's average rating rounded to 2 decimal places.
func (svc *Service) AverageRating(ctx context.Context, id int) (Rating, error) {
	prof, err := svc.GetByID(ctx, id)
	if err != nil {
		return Rating{}, err
	}
	avg, err := svc.repo.AverageRating(ctx, prof.ID)
	if err != nil {
		return Rating{}, errors.Wrap(err, "computing average rating")
	}
	return Rating{ProfessorID: prof.ID, AverageRating: core.Round(avg, 2)}, nil
}

// Stats returns the statistics of every professor. Averages are not rounded.
func (svc *Service) Stats(ctx context.Context) ([]Stats, error) {
	return svc.repo.QueryStats(ctx)
}
