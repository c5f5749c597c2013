package inmemdb

import (
	"context"
	"sort"

	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/professor"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func copyCourse(c course.Course) course.Course {
	c.ProfessorID = copyIntPtr(c.ProfessorID)
	c.Professor = nil
	return c
}

func (repo *courseRepository) CheckUniqueness(_ context.Context, code string, excludedID int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, c := range repo.db.courses {
		if c.ID != excludedID && c.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

// checkProfessor must be called with the lock held.
func (repo *courseRepository) checkProfessor(c course.Course) error {
	if c.ProfessorID == nil {
		return nil
	}
	if _, ok := repo.db.professors[*c.ProfessorID]; !ok {
		return professor.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkProfessor(c); err != nil {
		return course.Course{}, err
	}
	c = copyCourse(c)
	c.ID = repo.db.nextID("courses")
	repo.db.courses[c.ID] = &c
	return copyCourse(c), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter != nil {
			if filter.Search != "" && !(containsFold(c.Name, filter.Search) || containsFold(c.Code, filter.Search)) {
				continue
			}
			if filter.ProfessorID != 0 && (c.ProfessorID == nil || *c.ProfessorID != filter.ProfessorID) {
				continue
			}
		}
		courses = append(courses, copyCourse(*c))
	}
	sortCourses(courses)
	return courses, nil
}

func sortCourses(courses []course.Course) {
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
}

func (repo *courseRepository) GetCourse(_ context.Context, id int) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	c, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return copyCourse(*c), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if err := repo.checkProfessor(c); err != nil {
		return course.Course{}, err
	}
	c = copyCourse(c)
	repo.db.courses[c.ID] = &c
	return copyCourse(c), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	repo.db.deleteCourse(id)
	return nil
}

func (repo *courseRepository) QueryStats(_ context.Context) ([]course.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sortCourses(courses)

	stats := make([]course.Stats, 0, len(courses))
	for _, c := range courses {
		var evals, sum, n int
		for _, e := range repo.db.evaluations {
			if e.CourseID != c.ID {
				continue
			}
			evals++
			for _, a := range e.Answers {
				if a.Rating != nil {
					sum += *a.Rating
					n++
				}
			}
		}
		stats = append(stats, course.Stats{
			ID:             c.ID,
			Name:           c.Name,
			Code:           c.Code,
			AverageRating:  average(sum, n),
			NumEvaluations: evals,
		})
	}
	return stats, nil
}
