package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core/evaluation"
)

type evaluationRepository struct {
	db *DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func copyEvaluation(e evaluation.Evaluation) evaluation.Evaluation {
	e.FormID = copyIntPtr(e.FormID)
	e.Form = nil
	answers := make([]evaluation.Answer, len(e.Answers))
	for i, a := range e.Answers {
		if a.Selections != nil {
			sels := make([]string, len(a.Selections))
			copy(sels, a.Selections)
			a.Selections = sels
		}
		answers[i] = a
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionID < answers[j].QuestionID })
	e.Answers = answers
	return e
}

// taken must be called with the lock held.
func (repo *evaluationRepository) taken(key evaluation.Key, excludedID int) bool {
	if key.FormID == 0 {
		return false // NULL form never conflicts
	}
	for _, e := range repo.db.evaluations {
		if e.ID != excludedID && e.Key() == key {
			return true
		}
	}
	return false
}

// check enforces the foreign keys and unique constraints of e. It must be called with the lock held.
func (repo *evaluationRepository) check(e evaluation.Evaluation) error {
	if _, ok := repo.db.users[e.StudentID]; !ok {
		return errors.Errorf("evaluation: student %d does not exist", e.StudentID)
	}
	if _, ok := repo.db.professors[e.ProfessorID]; !ok {
		return errors.Errorf("evaluation: professor %d does not exist", e.ProfessorID)
	}
	if _, ok := repo.db.courses[e.CourseID]; !ok {
		return errors.Errorf("evaluation: course %d does not exist", e.CourseID)
	}
	if e.FormID != nil {
		if _, ok := repo.db.forms[*e.FormID]; !ok {
			return errors.Errorf("evaluation: form %d does not exist", *e.FormID)
		}
	}
	if repo.taken(e.Key(), e.ID) {
		return evaluation.ErrDuplicate
	}

	answered := make(map[int]bool, len(e.Answers))
	for _, a := range e.Answers {
		if _, ok := repo.db.questions[a.QuestionID]; !ok {
			return errors.Errorf("answer: question %d does not exist", a.QuestionID)
		}
		if answered[a.QuestionID] {
			return errors.Errorf("answer: question %d answered twice", a.QuestionID)
		}
		answered[a.QuestionID] = true
	}
	return nil
}

// store must be called with the write lock held.
func (repo *evaluationRepository) store(e evaluation.Evaluation) evaluation.Evaluation {
	e = copyEvaluation(e)
	for i := range e.Answers {
		e.Answers[i].ID = repo.db.nextID("answers")
		e.Answers[i].EvaluationID = e.ID
	}
	repo.db.evaluations[e.ID] = &e
	return copyEvaluation(e)
}

func (repo *evaluationRepository) Exists(_ context.Context, key evaluation.Key, excludedID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.taken(key, excludedID), nil
}

func (repo *evaluationRepository) CreateEvaluation(_ context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	e.ID = 0
	if err := repo.check(e); err != nil {
		return evaluation.Evaluation{}, err
	}
	e.ID = repo.db.nextID("evaluations")
	return repo.store(e), nil
}

func (repo *evaluationRepository) QueryEvaluations(_ context.Context, filter *evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	evals := make([]evaluation.Evaluation, 0, len(repo.db.evaluations))
	for _, e := range repo.db.evaluations {
		if filter != nil {
			if filter.StudentID != 0 && e.StudentID != filter.StudentID {
				continue
			}
			if filter.ProfessorID != 0 && e.ProfessorID != filter.ProfessorID {
				continue
			}
			if filter.CourseID != 0 && e.CourseID != filter.CourseID {
				continue
			}
			if filter.FormID != 0 && (e.FormID == nil || *e.FormID != filter.FormID) {
				continue
			}
		}
		evals = append(evals, copyEvaluation(*e))
	}
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].SubmittedAt.Equal(evals[j].SubmittedAt) {
			return evals[i].SubmittedAt.After(evals[j].SubmittedAt)
		}
		return evals[i].ID > evals[j].ID
	})
	return evals, nil
}

func (repo *evaluationRepository) GetEvaluation(_ context.Context, id int) (evaluation.Evaluation, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	e, ok := repo.db.evaluations[id]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	return copyEvaluation(*e), nil
}

func (repo *evaluationRepository) UpdateEvaluation(_ context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.evaluations[e.ID]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	e.StudentID = orig.StudentID
	e.SubmittedAt = orig.SubmittedAt
	if err := repo.check(e); err != nil {
		return evaluation.Evaluation{}, err
	}
	return repo.store(e), nil
}

func (repo *evaluationRepository) DeleteEvaluation(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.evaluations[id]; !ok {
		return evaluation.ErrNotFound
	}
	delete(repo.db.evaluations, id)
	return nil
}
