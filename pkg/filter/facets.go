package filter

import (
	"sort"

	"github.com/backsoul/quizreview/pkg/models"
)

// Statuses conjunto fijo de estados que ofrece el filtro de estado
var Statuses = []string{"correct", "incorrect", "partial"}

// Options valores seleccionables de cada faceta
type Options struct {
	Questions []int    `json:"questions"`
	Quizzes   []string `json:"quizzes"`
	Classes   []string `json:"classes"`
	Users     []string `json:"users"`
	Statuses  []string `json:"statuses"`
}

// DeriveFacets calcula los valores ofrecidos a partir de los registros.
// Los quizzes se derivan de todas las clases.
func DeriveFacets(records []models.QuestionRecord) Options {
	seenQ := make(map[int]bool)
	questions := []int{}
	classes := newOrderedSet()
	users := newOrderedSet()

	for _, r := range records {
		if !seenQ[r.QuestionNumber] {
			seenQ[r.QuestionNumber] = true
			questions = append(questions, r.QuestionNumber)
		}
		classes.add(r.Class)
		users.add(r.FullName())
	}
	sort.Ints(questions)

	return Options{
		Questions: questions,
		Quizzes:   QuizzesForClasses(records, classes.values),
		Classes:   classes.values,
		Users:     users.values,
		Statuses:  append([]string(nil), Statuses...),
	}
}

// QuizzesForClasses devuelve los quizzes de los registros cuyas clases están
// seleccionadas, en orden de primera aparición
func QuizzesForClasses(records []models.QuestionRecord, classes []string) []string {
	selected := toSet(classes)
	quizzes := newOrderedSet()
	for _, r := range records {
		if selected[r.Class] {
			quizzes.add(r.QuizName)
		}
	}
	return quizzes.values
}

// AllSelected selecciona todos los valores ofrecidos, sin búsqueda
func AllSelected(o Options) Selection {
	return Selection{
		Questions: append([]int{}, o.Questions...),
		Quizzes:   append([]string{}, o.Quizzes...),
		Classes:   append([]string{}, o.Classes...),
		Users:     append([]string{}, o.Users...),
		Statuses:  append([]string{}, o.Statuses...),
	}
}

type orderedSet struct {
	seen   map[string]bool
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), values: []string{}}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.values = append(s.values, v)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
