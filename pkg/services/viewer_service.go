package services

import (
	"errors"
	"fmt"

	"github.com/backsoul/quizreview/pkg/dataset"
	"github.com/backsoul/quizreview/pkg/filter"
	"github.com/backsoul/quizreview/pkg/models"
	"github.com/backsoul/quizreview/pkg/render"
)

// ErrNotLoaded se devuelve cuando el conjunto de datos no pudo cargarse
var ErrNotLoaded = errors.New("dataset not loaded")

// View resultado de una recomputación: lo que el navegador aplica tras cada evento
type View struct {
	Choices   render.OptionsView `json:"choices"`
	Selection filter.Selection   `json:"selection"`
	Results   render.Result      `json:"results"`
	Query     string             `json:"query"`
}

// ViewerService maneja la lógica del visor de registros
type ViewerService struct {
	store   *dataset.Store
	loadErr error
}

// NewViewerService crea el servicio. loadErr es el error terminal de la carga
// inicial, si la hubo.
func NewViewerService(store *dataset.Store, loadErr error) *ViewerService {
	if store == nil && loadErr == nil {
		loadErr = ErrNotLoaded
	}
	return &ViewerService{
		store:   store,
		loadErr: loadErr,
	}
}

// LoadError devuelve el error de carga, nil si el conjunto está disponible
func (s *ViewerService) LoadError() error {
	return s.loadErr
}

// Records devuelve todos los registros cargados
func (s *ViewerService) Records() ([]models.QuestionRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.store.Records(), nil
}

// InitialState estado de una vista nueva: todo seleccionado
func (s *ViewerService) InitialState() (filter.State, error) {
	records, err := s.Records()
	if err != nil {
		return filter.State{}, err
	}
	return filter.NewState(records), nil
}

// Render recalcula el subconjunto visible y la query string para un estado
func (s *ViewerService) Render(state filter.State) (View, error) {
	records, err := s.Records()
	if err != nil {
		return View{}, err
	}

	matched := state.Apply(records)
	results, err := render.Results(matched, len(records), state.Selection.SelectedOnly)
	if err != nil {
		return View{}, err
	}

	return View{
		Choices:   render.NewOptionsView(state.Options, state.Selection),
		Selection: state.Selection,
		Results:   results,
		Query:     state.Selection.Query(),
	}, nil
}

// Dispatch aplica un evento de filtro al estado y recalcula la vista.
// togglePanel no pertenece al estado de filtros y lo maneja PreferenceService.
func (s *ViewerService) Dispatch(state filter.State, ev models.ViewerEvent) (filter.State, View, error) {
	records, err := s.Records()
	if err != nil {
		return state, View{}, err
	}

	next := state
	switch ev.Type {
	case models.EventSelect:
		next, err = state.Select(records, ev.Facet, ev.Values)
	case models.EventSearch:
		next = state.WithSearch(ev.Value)
	case models.EventSelectedOnly:
		next = state.WithSelectedOnly(ev.Checked)
	case models.EventClear:
		next = state.Reset(records)
	case models.EventClearFacet:
		next, err = state.ResetFacet(records, ev.Facet)
	default:
		err = fmt.Errorf("evento desconocido: %q", ev.Type)
	}
	if err != nil {
		return state, View{}, err
	}

	view, err := s.Render(next)
	if err != nil {
		return state, View{}, err
	}
	return next, view, nil
}

// Filter aplica una selección sin estado, usado por la API JSON
func (s *ViewerService) Filter(sel filter.Selection) (models.QuestionResponse, error) {
	records, err := s.Records()
	if err != nil {
		return models.QuestionResponse{}, err
	}
	matched := filter.Apply(records, sel)
	return models.QuestionResponse{
		Questions: matched,
		Count:     len(matched),
		Total:     len(records),
		Query:     sel.Query(),
		CountLine: render.CountLine(len(matched), len(records)),
	}, nil
}

// Facets valores ofrecidos; con classes no vacío los quizzes se limitan a esas clases
func (s *ViewerService) Facets(classes []string) (filter.Options, error) {
	records, err := s.Records()
	if err != nil {
		return filter.Options{}, err
	}
	opts := filter.DeriveFacets(records)
	if classes != nil {
		opts.Quizzes = filter.QuizzesForClasses(records, classes)
	}
	return opts, nil
}
