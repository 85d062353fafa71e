package filter

import (
	"reflect"
	"testing"

	"github.com/backsoul/quizreview/pkg/models"
)

func sampleRecords() []models.QuestionRecord {
	return []models.QuestionRecord{
		{
			QuestionNumber: 1, QuizName: "Quiz 1", Class: "A", Attempt: "1",
			FirstName: "Ada", LastName: "Lovelace", Status: "correct",
			QuestionBody: []models.Segment{
				{Type: models.SegmentText, Text: "What is the Capital of France?"},
				{Type: models.SegmentImage, Src: "map.png", Alt: "European landmark"},
			},
			Options:         []string{"Paris", "Rome"},
			SelectedOptions: []string{"Paris"},
		},
		{
			QuestionNumber: 2, QuizName: "Quiz 2", Class: "B", Attempt: "1",
			FirstName: "Alan", LastName: "Turing", Status: "Incorrect",
			QuestionBody: []models.Segment{
				{Type: models.SegmentText, Text: "Pick the prime number"},
			},
			Options:         []string{"4", "7"},
			SelectedOptions: []string{"4"},
		},
		{
			QuestionNumber: 1, QuizName: "Quiz 3", Class: "B", Attempt: "2",
			FirstName: "Ada", LastName: "Lovelace", Status: "partial",
			QuestionBody: []models.Segment{
				{Type: models.SegmentText, Text: "Select all even numbers"},
			},
			Options:         []string{"2", "3", "8"},
			SelectedOptions: []string{"2"},
		},
	}
}

func quizNames(records []models.QuestionRecord) []string {
	out := []string{}
	for _, r := range records {
		out = append(out, r.QuizName)
	}
	return out
}

func TestApplyAllSelectedReturnsEverything(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	got := state.Apply(records)
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("expected full record set, got %v", quizNames(got))
	}
}

func TestApplyEmptyFacetExcludesEverything(t *testing.T) {
	records := sampleRecords()
	base := AllSelected(DeriveFacets(records))

	cases := map[string]func(s *Selection){
		"question": func(s *Selection) { s.Questions = nil },
		"quiz":     func(s *Selection) { s.Quizzes = nil },
		"class":    func(s *Selection) { s.Classes = []string{} },
		"user":     func(s *Selection) { s.Users = nil },
		"status":   func(s *Selection) { s.Statuses = []string{} },
	}
	for name, empty := range cases {
		t.Run(name, func(t *testing.T) {
			sel := base
			empty(&sel)
			if got := Apply(records, sel); len(got) != 0 {
				t.Fatalf("expected no matches, got %d", len(got))
			}
		})
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	records := sampleRecords()
	sel := AllSelected(DeriveFacets(records))
	sel.Users = []string{"Ada Lovelace"}

	got := Apply(records, sel)
	want := []string{"Quiz 1", "Quiz 3"}
	if !reflect.DeepEqual(quizNames(got), want) {
		t.Fatalf("expected %v, got %v", want, quizNames(got))
	}
}

func TestApplySearch(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty matches all", query: "   ", want: []string{"Quiz 1", "Quiz 2", "Quiz 3"}},
		{name: "case insensitive text", query: "  CAPITAL ", want: []string{"Quiz 1"}},
		{name: "option text", query: "rome", want: []string{"Quiz 1"}},
		{name: "alt text excluded", query: "landmark", want: []string{}},
		{name: "no match", query: "zebra", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := AllSelected(DeriveFacets(records))
			sel.Search = tt.query
			got := quizNames(Apply(records, sel))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApplyStatusIsCaseInsensitive(t *testing.T) {
	records := sampleRecords()
	sel := AllSelected(DeriveFacets(records))
	sel.Statuses = []string{"INCORRECT"}

	got := quizNames(Apply(records, sel))
	if !reflect.DeepEqual(got, []string{"Quiz 2"}) {
		t.Fatalf("expected only Quiz 2, got %v", got)
	}
}

func TestDeriveFacets(t *testing.T) {
	opts := DeriveFacets(sampleRecords())

	if !reflect.DeepEqual(opts.Questions, []int{1, 2}) {
		t.Fatalf("unexpected questions %v", opts.Questions)
	}
	if !reflect.DeepEqual(opts.Classes, []string{"A", "B"}) {
		t.Fatalf("unexpected classes %v", opts.Classes)
	}
	if !reflect.DeepEqual(opts.Users, []string{"Ada Lovelace", "Alan Turing"}) {
		t.Fatalf("unexpected users %v", opts.Users)
	}
	if !reflect.DeepEqual(opts.Quizzes, []string{"Quiz 1", "Quiz 2", "Quiz 3"}) {
		t.Fatalf("unexpected quizzes %v", opts.Quizzes)
	}
	if !reflect.DeepEqual(opts.Statuses, Statuses) {
		t.Fatalf("unexpected statuses %v", opts.Statuses)
	}
}

func TestSelectClassNarrowsQuizzes(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	next, err := state.Select(records, FacetClass, []string{"B"})
	if err != nil {
		t.Fatalf("select class: %v", err)
	}

	want := []string{"Quiz 2", "Quiz 3"}
	if !reflect.DeepEqual(next.Options.Quizzes, want) {
		t.Fatalf("expected offered quizzes %v, got %v", want, next.Options.Quizzes)
	}
	if !reflect.DeepEqual(next.Selection.Quizzes, want) {
		t.Fatalf("expected selected quizzes %v, got %v", want, next.Selection.Quizzes)
	}
	for _, r := range next.Apply(records) {
		if r.Class == "A" {
			t.Fatalf("class A record leaked into results: %+v", r)
		}
	}
	if len(state.Options.Quizzes) != 3 {
		t.Fatalf("original state was mutated: %v", state.Options.Quizzes)
	}
}

func TestSelectQuizDoesNotTouchClasses(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	next, err := state.Select(records, FacetQuiz, []string{"Quiz 2"})
	if err != nil {
		t.Fatalf("select quiz: %v", err)
	}
	if !reflect.DeepEqual(next.Selection.Classes, []string{"A", "B"}) {
		t.Fatalf("classes changed: %v", next.Selection.Classes)
	}
	if !reflect.DeepEqual(next.Options.Quizzes, state.Options.Quizzes) {
		t.Fatalf("offered quizzes changed: %v", next.Options.Quizzes)
	}
}

func TestSelectRejectsBadInput(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	if _, err := state.Select(records, FacetQuestion, []string{"abc"}); err == nil {
		t.Fatal("expected error for non-numeric question")
	}
	if _, err := state.Select(records, "colour", nil); err == nil {
		t.Fatal("expected error for unknown facet")
	}
}

func TestSelectedOnlyDoesNotChangeMatches(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	before := state.Apply(records)
	after := state.WithSelectedOnly(true).Apply(records)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("selected-only changed the matching subset")
	}
}

func TestResetAndResetFacet(t *testing.T) {
	records := sampleRecords()
	state := NewState(records)

	state, _ = state.Select(records, FacetClass, []string{"A"})
	state, _ = state.Select(records, FacetUser, nil)
	state = state.WithSearch("paris").WithSelectedOnly(true)

	cleared, err := state.ResetFacet(records, FacetUser)
	if err != nil {
		t.Fatalf("reset user: %v", err)
	}
	if !reflect.DeepEqual(cleared.Selection.Users, state.Options.Users) {
		t.Fatalf("users not reset: %v", cleared.Selection.Users)
	}
	if cleared.Selection.Search != "paris" || !cleared.Selection.SelectedOnly {
		t.Fatal("per-facet reset touched other facets")
	}

	cleared, _ = cleared.ResetFacet(records, FacetSelectedOnly)
	if cleared.Selection.SelectedOnly {
		t.Fatal("selected-only not unchecked")
	}
	cleared, _ = cleared.ResetFacet(records, FacetClass)
	if !reflect.DeepEqual(cleared.Options.Quizzes, []string{"Quiz 1", "Quiz 2", "Quiz 3"}) {
		t.Fatalf("quizzes not re-derived after class reset: %v", cleared.Options.Quizzes)
	}

	all := state.Reset(records)
	if !reflect.DeepEqual(all, NewState(records)) {
		t.Fatal("global reset did not restore the initial state")
	}
}
