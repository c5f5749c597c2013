package inmemdb

import (
	"context"
	"sort"

	"github.com/evaldocente/backend/core/question"
)

type questionRepository struct {
	db *DB
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) *questionRepository {
	return &questionRepository{db: db}
}

func sortQuestions(qs []question.Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	q.ID = repo.db.nextID("questions")
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *questionRepository) QueryQuestions(_ context.Context, filter *question.QueryFilter) ([]question.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	qs := make([]question.Question, 0, len(repo.db.questions))
	for _, q := range repo.db.questions {
		if filter != nil {
			if filter.Type != "" && q.Type != filter.Type {
				continue
			}
			if !containsFold(q.Text, filter.Search) {
				continue
			}
		}
		qs = append(qs, *q)
	}
	sortQuestions(qs)
	return qs, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id int) (question.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	return *q, nil
}

func (repo *questionRepository) GetQuestions(_ context.Context, ids ...int) ([]question.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[int]bool, len(ids))
	qs := make([]question.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := repo.db.questions[id]; ok && !seen[id] {
			seen[id] = true
			qs = append(qs, *q)
		}
	}
	sortQuestions(qs)
	return qs, nil
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return question.Question{}, question.ErrNotFound
	}
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *questionRepository) DeleteQuestion(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return question.ErrNotFound
	}
	repo.db.deleteQuestion(id)
	return nil
}
