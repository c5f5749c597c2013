package inmemdb

import (
	"context"
	"sort"

	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/question"
)

type formRepository struct {
	db *DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *DB) *formRepository {
	return &formRepository{db: db}
}

func copyForm(f form.Form) form.Form {
	f.QuestionIDs = copyInts(f.QuestionIDs)
	if f.QuestionIDs == nil {
		f.QuestionIDs = []int{}
	}
	f.Questions = nil
	if f.Description != nil {
		desc := *f.Description
		f.Description = &desc
	}
	return f
}

// checkQuestions must be called with the lock held.
func (repo *formRepository) checkQuestions(f form.Form) error {
	for _, id := range f.QuestionIDs {
		if _, ok := repo.db.questions[id]; !ok {
			return question.ErrNotFound
		}
	}
	return nil
}

func (repo *formRepository) CreateForm(_ context.Context, f form.Form) (form.Form, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkQuestions(f); err != nil {
		return form.Form{}, err
	}
	f = copyForm(f)
	f.ID = repo.db.nextID("forms")
	repo.db.forms[f.ID] = &f
	return copyForm(f), nil
}

func (repo *formRepository) QueryForms(_ context.Context, filter *form.QueryFilter) ([]form.Form, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	forms := make([]form.Form, 0, len(repo.db.forms))
	for _, f := range repo.db.forms {
		if filter != nil && filter.IsActive != nil && f.IsActive != *filter.IsActive {
			continue
		}
		forms = append(forms, copyForm(*f))
	}
	sort.Slice(forms, func(i, j int) bool {
		if !forms[i].CreatedAt.Equal(forms[j].CreatedAt) {
			return forms[i].CreatedAt.After(forms[j].CreatedAt)
		}
		return forms[i].ID > forms[j].ID
	})
	return forms, nil
}

func (repo *formRepository) GetForm(_ context.Context, id int) (form.Form, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	f, ok := repo.db.forms[id]
	if !ok {
		return form.Form{}, form.ErrNotFound
	}
	return copyForm(*f), nil
}

func (repo *formRepository) UpdateForm(_ context.Context, f form.Form) (form.Form, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.forms[f.ID]; !ok {
		return form.Form{}, form.ErrNotFound
	}
	if err := repo.checkQuestions(f); err != nil {
		return form.Form{}, err
	}
	f = copyForm(f)
	repo.db.forms[f.ID] = &f
	return copyForm(f), nil
}

func (repo *formRepository) DeleteForm(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.forms[id]; !ok {
		return form.ErrNotFound
	}
	repo.db.deleteForm(id)
	return nil
}
