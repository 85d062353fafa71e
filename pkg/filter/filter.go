package filter

import (
	"strings"

	"github.com/backsoul/quizreview/pkg/models"
)

// Selection valores seleccionados en cada faceta.
// Una faceta vacía excluye todos los registros.
type Selection struct {
	Search       string   `json:"search"`
	Questions    []int    `json:"questions"`
	Quizzes      []string `json:"quizzes"`
	Classes      []string `json:"classes"`
	Users        []string `json:"users"`
	Statuses     []string `json:"statuses"`
	SelectedOnly bool     `json:"selectedOnly"`
}

// NormalizedSearch texto de búsqueda recortado y en minúsculas
func (s Selection) NormalizedSearch() string {
	return strings.ToLower(strings.TrimSpace(s.Search))
}

// Apply devuelve los registros que cumplen todas las facetas (AND entre
// facetas, OR dentro de cada una), preservando el orden original
func Apply(records []models.QuestionRecord, sel Selection) []models.QuestionRecord {
	query := sel.NormalizedSearch()

	questions := make(map[int]bool, len(sel.Questions))
	for _, n := range sel.Questions {
		questions[n] = true
	}
	quizzes := toSet(sel.Quizzes)
	classes := toSet(sel.Classes)
	users := toSet(sel.Users)
	statuses := make(map[string]bool, len(sel.Statuses))
	for _, s := range sel.Statuses {
		statuses[strings.ToLower(s)] = true
	}

	matched := []models.QuestionRecord{}
	for _, r := range records {
		if query != "" && !strings.Contains(r.TextCorpus(), query) {
			continue
		}
		if !questions[r.QuestionNumber] {
			continue
		}
		if !quizzes[r.QuizName] {
			continue
		}
		if !classes[r.Class] {
			continue
		}
		if !users[r.FullName()] {
			continue
		}
		if !statuses[strings.ToLower(r.Status)] {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}
