package course

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/professor"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("course")
	ErrCodeExists  = errors.New("a course with this code already exists")
	errInvalidProf = "invalid pk - professor does not exist"
)

type (
	Repository interface {
		// CheckUniqueness returns ErrCodeExists when a course, other than excludedID, already holds code.
		CheckUniqueness(ctx context.Context, code string, excludedID int) error
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// QueryCourses returns the courses ordered by name.
		// QueryFilter.Search does a case-insensitive match on Course.Name or Course.Code.
		QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error
		// QueryStats returns one row per course: distinct evaluations received and average rating (0 if none).
		QueryStats(ctx context.Context) ([]Stats, error)
	}

	ServiceInterface interface {
		CheckReferences(ctx context.Context, nc NewCourse, exclude ...Course) error
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetByID(ctx context.Context, id int) (Course, error)
		Update(ctx context.Context, c Course, nc NewCourse) (Course, error)
		Delete(ctx context.Context, id int) error
		Stats(ctx context.Context) ([]Stats, error)
	}

	ProfessorGetter interface {
		GetByID(ctx context.Context, id int) (professor.Professor, error)
	}

	Service struct {
		repo       Repository
		professors ProfessorGetter
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, professors ProfessorGetter) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(professors, "professors"),
	).CheckAndPanic()

	return &Service{repo: repo, professors: professors}
}

// CheckReferences checks the course code is free and the assigned professor exists.
func (svc *Service) CheckReferences(ctx context.Context, nc NewCourse, exclude ...Course) error {
	if nc.ProfessorID != nil {
		if _, err := svc.professors.GetByID(ctx, *nc.ProfessorID); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(nil, core.FieldError{Field: "profesor_id", Error: errInvalidProf})
			}
			return errors.Wrap(err, "finding professor by ID")
		}
	}

	var excludedID int
	if len(exclude) > 0 {
		excludedID = exclude[0].ID
	}
	if err := svc.repo.CheckUniqueness(ctx, nc.Code, excludedID); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "codigo", Error: err.Error()})
		}
		return errors.Wrap(err, "checking course uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	c, err := svc.repo.CreateCourse(ctx, Course{Name: nc.Name, Code: nc.Code, ProfessorID: nc.ProfessorID})
	if err != nil {
		return Course{}, err
	}
	return svc.hydrate(ctx, c, nil)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, filter)
	if err != nil {
		return nil, err
	}
	cache := make(map[int]professor.Professor)
	for i := range courses {
		if courses[i], err = svc.hydrate(ctx, courses[i], cache); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	if id <= 0 {
		return Course{}, ErrNotFound
	}
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	return svc.hydrate(ctx, c, nil)
}

func (svc *Service) Update(ctx context.Context, c Course, nc NewCourse) (Course, error) {
	c.Name = nc.Name
	c.Code = nc.Code
	c.ProfessorID = nc.ProfessorID
	c, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, err
	}
	return svc.hydrate(ctx, c, nil)
}

// Delete removes the course and the evaluations of it.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// Stats returns the statistics of every course. Averages are not rounded.
func (svc *Service) Stats(ctx context.Context) ([]Stats, error) {
	return svc.repo.QueryStats(ctx)
}

// hydrate loads the course's professor. cache may be nil.
func (svc *Service) hydrate(ctx context.Context, c Course, cache map[int]professor.Professor) (Course, error) {
	c.Professor = nil
	if c.ProfessorID == nil {
		return c, nil
	}
	if prof, ok := cache[*c.ProfessorID]; ok {
		c.Professor = &prof
		return c, nil
	}
	prof, err := svc.professors.GetByID(ctx, *c.ProfessorID)
	if err != nil {
		return Course{}, errors.Wrapf(err, "loading professor of course %d", c.ID)
	}
	if cache != nil {
		cache[prof.ID] = prof
	}
	c.Professor = &prof
	return c, nil
}
