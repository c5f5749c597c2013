package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/user"
)

type professorRepository struct {
	db *DB
}

var _ professor.Repository = (*professorRepository)(nil) // interface compliance check

func NewProfessorRepository(db *DB) *professorRepository {
	return &professorRepository{db: db}
}

// withUser must be called with the lock held.
func (repo *professorRepository) withUser(p professor.Professor) professor.Professor {
	if usr, ok := repo.db.users[p.UserID]; ok {
		p.User = usr.Summary()
	} else {
		p.User = user.Summary{}
	}
	return p
}

func (repo *professorRepository) CheckUniqueness(_ context.Context, employeeID string, userID, excludedID int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.professors {
		if p.ID == excludedID {
			continue
		}
		if p.EmployeeID == employeeID {
			return professor.ErrEmployeeIDExists
		}
		if p.UserID == userID {
			return professor.ErrUserHasProfile
		}
	}
	return nil
}

func (repo *professorRepository) CreateProfessor(_ context.Context, prof professor.Professor) (professor.Professor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[prof.UserID]; !ok {
		return professor.Professor{}, user.ErrNotFound
	}
	prof.ID = repo.db.nextID("professors")
	repo.db.professors[prof.ID] = &prof
	return repo.withUser(prof), nil
}

func (repo *professorRepository) QueryProfessors(_ context.Context, filter *professor.QueryFilter) ([]professor.Professor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	profs := make([]professor.Professor, 0, len(repo.db.professors))
	for _, p := range repo.db.professors {
		prof := repo.withUser(*p)
		if filter != nil {
			if filter.Department != "" && !strings.EqualFold(prof.Department, filter.Department) {
				continue
			}
			if s := filter.Search; s != "" &&
				!(containsFold(prof.User.Username, s) || containsFold(prof.User.FirstName, s) ||
					containsFold(prof.User.LastName, s) || containsFold(prof.EmployeeID, s) ||
					containsFold(prof.Department, s)) {
				continue
			}
		}
		profs = append(profs, prof)
	}
	sortProfessors(profs)
	return profs, nil
}

func sortProfessors(profs []professor.Professor) {
	sort.Slice(profs, func(i, j int) bool {
		a, b := profs[i].User, profs[j].User
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return profs[i].ID < profs[j].ID
	})
}

func (repo *professorRepository) GetProfessor(_ context.Context, id int) (professor.Professor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	p, ok := repo.db.professors[id]
	if !ok {
		return professor.Professor{}, professor.ErrNotFound
	}
	return repo.withUser(*p), nil
}

func (repo *professorRepository) UpdateProfessor(_ context.Context, prof professor.Professor) (professor.Professor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.professors[prof.ID]; !ok {
		return professor.Professor{}, professor.ErrNotFound
	}
	if _, ok := repo.db.users[prof.UserID]; !ok {
		return professor.Professor{}, user.ErrNotFound
	}
	repo.db.professors[prof.ID] = &prof
	return repo.withUser(prof), nil
}

func (repo *professorRepository) DeleteProfessor(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.professors[id]; !ok {
		return professor.ErrNotFound
	}
	repo.db.deleteProfessor(id)
	return nil
}

// ratings must be called with the lock held.
// It returns the number of evaluations received by the professor with id, and the sum and count of their ratings.
func (repo *professorRepository) ratings(id int) (evals, sum, n int) {
	for _, e := range repo.db.evaluations {
		if e.ProfessorID != id {
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
	return evals, sum, n
}

func average(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func (repo *professorRepository) AverageRating(_ context.Context, id int) (float64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, sum, n := repo.ratings(id)
	return average(sum, n), nil
}

func (repo *professorRepository) QueryStats(_ context.Context) ([]professor.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	profs := make([]professor.Professor, 0, len(repo.db.professors))
	for _, p := range repo.db.professors {
		profs = append(profs, repo.withUser(*p))
	}
	sortProfessors(profs)

	stats := make([]professor.Stats, 0, len(profs))
	for _, p := range profs {
		evals, sum, n := repo.ratings(p.ID)
		stats = append(stats, professor.Stats{
			ID:             p.ID,
			FirstName:      p.User.FirstName,
			LastName:       p.User.LastName,
			NumEvaluations: evals,
			AverageRating:  average(sum, n),
		})
	}
	return stats, nil
}
