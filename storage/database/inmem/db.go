package inmemdb

import (
	"strings"
	"sync"

	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/evaluation"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
)

// DB is an in-memory store honouring the same constraints and delete rules as the SQL schema.
// Every table shares one lock so cascades are atomic.
type DB struct {
	mu sync.RWMutex

	users       map[int]*user.User
	professors  map[int]*professor.Professor
	courses     map[int]*course.Course
	questions   map[int]*question.Question
	forms       map[int]*form.Form
	evaluations map[int]*evaluation.Evaluation

	seq map[string]int
}

func Open() *DB {
	return &DB{
		users:       make(map[int]*user.User),
		professors:  make(map[int]*professor.Professor),
		courses:     make(map[int]*course.Course),
		questions:   make(map[int]*question.Question),
		forms:       make(map[int]*form.Form),
		evaluations: make(map[int]*evaluation.Evaluation),
		seq:         make(map[string]int),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// deleteUser must be called with the write lock held.
func (db *DB) deleteUser(id int) {
	for pid, p := range db.professors {
		if p.UserID == id {
			db.deleteProfessor(pid)
		}
	}
	for eid, e := range db.evaluations {
		if e.StudentID == id {
			delete(db.evaluations, eid)
		}
	}
	delete(db.users, id)
}

// deleteProfessor must be called with the write lock held.
func (db *DB) deleteProfessor(id int) {
	for _, c := range db.courses {
		if c.ProfessorID != nil && *c.ProfessorID == id {
			c.ProfessorID = nil
		}
	}
	for eid, e := range db.evaluations {
		if e.ProfessorID == id {
			delete(db.evaluations, eid)
		}
	}
	delete(db.professors, id)
}

// deleteCourse must be called with the write lock held.
func (db *DB) deleteCourse(id int) {
	for eid, e := range db.evaluations {
		if e.CourseID == id {
			delete(db.evaluations, eid)
		}
	}
	delete(db.courses, id)
}

// deleteQuestion must be called with the write lock held.
func (db *DB) deleteQuestion(id int) {
	for _, f := range db.forms {
		ids := f.QuestionIDs[:0]
		for _, qid := range f.QuestionIDs {
			if qid != id {
				ids = append(ids, qid)
			}
		}
		f.QuestionIDs = ids
	}
	for _, e := range db.evaluations {
		answers := e.Answers[:0]
		for _, a := range e.Answers {
			if a.QuestionID != id {
				answers = append(answers, a)
			}
		}
		e.Answers = answers
	}
	delete(db.questions, id)
}

// deleteForm must be called with the write lock held.
func (db *DB) deleteForm(id int) {
	for _, e := range db.evaluations {
		if e.FormID != nil && *e.FormID == id {
			e.FormID = nil
		}
	}
	delete(db.forms, id)
}

func copyInts(ids []int) []int {
	if ids == nil {
		return nil
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
