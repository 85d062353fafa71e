package filter

import (
	"fmt"
	"strconv"

	"github.com/backsoul/quizreview/pkg/models"
)

// Nombres de faceta usados por los eventos del navegador
const (
	FacetSearch       = "search"
	FacetQuestion     = "question"
	FacetQuiz         = "quiz"
	FacetClass        = "class"
	FacetUser         = "user"
	FacetStatus       = "status"
	FacetSelectedOnly = "selected-only"
)

// State estado explícito de los controles: valores ofrecidos y seleccionados.
// Los métodos no modifican el receptor; devuelven un estado nuevo.
type State struct {
	Options   Options   `json:"options"`
	Selection Selection `json:"selection"`
}

// NewState estado inicial: todo seleccionado, búsqueda vacía
func NewState(records []models.QuestionRecord) State {
	opts := DeriveFacets(records)
	return State{Options: opts, Selection: AllSelected(opts)}
}

// Select reemplaza la selección de una faceta. Un cambio de clase vuelve a
// derivar los quizzes ofrecidos y los selecciona todos.
func (s State) Select(records []models.QuestionRecord, facet string, values []string) (State, error) {
	next := s.clone()
	switch facet {
	case FacetQuestion:
		questions := make([]int, 0, len(values))
		for _, v := range values {
			n, err := strconv.Atoi(v)
			if err != nil {
				return s, fmt.Errorf("número de pregunta inválido %q: %w", v, err)
			}
			questions = append(questions, n)
		}
		next.Selection.Questions = questions
	case FacetQuiz:
		next.Selection.Quizzes = append([]string{}, values...)
	case FacetClass:
		next.Selection.Classes = append([]string{}, values...)
		next = next.withDerivedQuizzes(records)
	case FacetUser:
		next.Selection.Users = append([]string{}, values...)
	case FacetStatus:
		next.Selection.Statuses = append([]string{}, values...)
	default:
		return s, fmt.Errorf("faceta desconocida: %q", facet)
	}
	return next, nil
}

// WithSearch fija el texto de búsqueda
func (s State) WithSearch(query string) State {
	next := s.clone()
	next.Selection.Search = query
	return next
}

// WithSelectedOnly fija el interruptor "sólo opciones seleccionadas"
func (s State) WithSelectedOnly(checked bool) State {
	next := s.clone()
	next.Selection.SelectedOnly = checked
	return next
}

// Reset vuelve todas las facetas a "todo seleccionado", vacía la búsqueda y
// desmarca "sólo seleccionadas"
func (s State) Reset(records []models.QuestionRecord) State {
	return NewState(records)
}

// ResetFacet limpia una sola faceta
func (s State) ResetFacet(records []models.QuestionRecord, facet string) (State, error) {
	next := s.clone()
	switch facet {
	case FacetSearch:
		next.Selection.Search = ""
	case FacetSelectedOnly:
		next.Selection.SelectedOnly = false
	case FacetQuestion:
		next.Selection.Questions = append([]int{}, next.Options.Questions...)
	case FacetQuiz:
		next.Selection.Quizzes = append([]string{}, next.Options.Quizzes...)
	case FacetClass:
		next.Selection.Classes = append([]string{}, next.Options.Classes...)
		next = next.withDerivedQuizzes(records)
	case FacetUser:
		next.Selection.Users = append([]string{}, next.Options.Users...)
	case FacetStatus:
		next.Selection.Statuses = append([]string{}, next.Options.Statuses...)
	default:
		return s, fmt.Errorf("faceta desconocida: %q", facet)
	}
	return next, nil
}

// Apply aplica la selección actual a los registros
func (s State) Apply(records []models.QuestionRecord) []models.QuestionRecord {
	return Apply(records, s.Selection)
}

func (s State) withDerivedQuizzes(records []models.QuestionRecord) State {
	quizzes := QuizzesForClasses(records, s.Selection.Classes)
	s.Options.Quizzes = quizzes
	s.Selection.Quizzes = append([]string{}, quizzes...)
	return s
}

func (s State) clone() State {
	return State{
		Options: Options{
			Questions: append([]int{}, s.Options.Questions...),
			Quizzes:   append([]string{}, s.Options.Quizzes...),
			Classes:   append([]string{}, s.Options.Classes...),
			Users:     append([]string{}, s.Options.Users...),
			Statuses:  append([]string{}, s.Options.Statuses...),
		},
		Selection: Selection{
			Search:       s.Selection.Search,
			Questions:    append([]int{}, s.Selection.Questions...),
			Quizzes:      append([]string{}, s.Selection.Quizzes...),
			Classes:      append([]string{}, s.Selection.Classes...),
			Users:        append([]string{}, s.Selection.Users...),
			Statuses:     append([]string{}, s.Selection.Statuses...),
			SelectedOnly: s.Selection.SelectedOnly,
		},
	}
}
