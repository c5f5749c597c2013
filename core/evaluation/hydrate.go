package evaluation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
)

// hydrationCache holds the related objects already loaded while hydrating a list of evaluations.
type hydrationCache struct {
	students   map[int]user.Summary
	professors map[int]professor.Professor
	courses    map[int]course.Course
	forms      map[int]form.Form
	questions  map[int]question.Question
}

func newHydrationCache() *hydrationCache {
	return &hydrationCache{
		students:   make(map[int]user.Summary),
		professors: make(map[int]professor.Professor),
		courses:    make(map[int]course.Course),
		forms:      make(map[int]form.Form),
		questions:  make(map[int]question.Question),
	}
}

// hydrate loads the related objects of e from their services.
func (svc *Service) hydrate(ctx context.Context, e Evaluation, cache *hydrationCache) (Evaluation, error) {
	var ok bool

	if e.Student, ok = cache.students[e.StudentID]; !ok {
		usr, err := svc.users.GetByID(ctx, e.StudentID)
		if err != nil {
			return Evaluation{}, errors.Wrapf(err, "loading student of evaluation %d", e.ID)
		}
		e.Student = usr.Summary()
		cache.students[e.StudentID] = e.Student
	}

	if e.Professor, ok = cache.professors[e.ProfessorID]; !ok {
		prof, err := svc.professors.GetByID(ctx, e.ProfessorID)
		if err != nil {
			return Evaluation{}, errors.Wrapf(err, "loading professor of evaluation %d", e.ID)
		}
		e.Professor = prof
		cache.professors[e.ProfessorID] = prof
	}

	if e.Course, ok = cache.courses[e.CourseID]; !ok {
		crs, err := svc.courses.GetByID(ctx, e.CourseID)
		if err != nil {
			return Evaluation{}, errors.Wrapf(err, "loading course of evaluation %d", e.ID)
		}
		e.Course = crs
		cache.courses[e.CourseID] = crs
	}

	e.Form = nil
	if e.FormID != nil {
		frm, ok := cache.forms[*e.FormID]
		if !ok {
			var err error
			frm, err = svc.forms.GetByID(ctx, *e.FormID)
			if err != nil && !core.IsNotFound(err) {
				return Evaluation{}, errors.Wrapf(err, "loading form of evaluation %d", e.ID)
			}
			if err == nil {
				cache.forms[frm.ID] = frm
			}
		}
		if frm.ID != 0 {
			e.Form = &frm
		}
	}

	var missing []int
	for _, a := range e.Answers {
		if _, ok := cache.questions[a.QuestionID]; !ok {
			missing = append(missing, a.QuestionID)
		}
	}
	if len(missing) > 0 {
		qs, err := svc.questions.GetMany(ctx, missing...)
		if err != nil {
			return Evaluation{}, errors.Wrapf(err, "loading questions of evaluation %d", e.ID)
		}
		for _, q := range qs {
			cache.questions[q.ID] = q
		}
	}
	if e.Answers == nil {
		e.Answers = []Answer{}
	}
	for i := range e.Answers {
		e.Answers[i].EvaluationID = e.ID
		e.Answers[i].Question = cache.questions[e.Answers[i].QuestionID]
	}
	return e, nil
}
