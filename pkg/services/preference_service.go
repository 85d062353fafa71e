package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/backsoul/quizreview/pkg/models"
)

// PanelStore persiste el flag de panel colapsado por visitante
type PanelStore interface {
	PanelCollapsed(ctx context.Context, viewerID string) (bool, error)
	SetPanelCollapsed(ctx context.Context, viewerID string, collapsed bool) error
}

// MemoryPanelStore implementación en memoria, usada cuando no hay Redis
type MemoryPanelStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryPanelStore crea un store vacío
func NewMemoryPanelStore() *MemoryPanelStore {
	return &MemoryPanelStore{flags: make(map[string]bool)}
}

func (m *MemoryPanelStore) PanelCollapsed(_ context.Context, viewerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[viewerID], nil
}

func (m *MemoryPanelStore) SetPanelCollapsed(_ context.Context, viewerID string, collapsed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[viewerID] = collapsed
	return nil
}

// PreferenceService maneja el estado del panel de filtros
type PreferenceService struct {
	store PanelStore
	// toggleMu serializa lectura y escritura del flag
	toggleMu sync.Mutex
}

// NewPreferenceService crea una nueva instancia del servicio
func NewPreferenceService(store PanelStore) *PreferenceService {
	if store == nil {
		store = NewMemoryPanelStore()
	}
	return &PreferenceService{store: store}
}

// Panel devuelve el estado del panel de un visitante. Un error de lectura
// deja el panel abierto.
func (s *PreferenceService) Panel(ctx context.Context, viewerID string) models.PanelState {
	collapsed, err := s.store.PanelCollapsed(ctx, viewerID)
	if err != nil {
		log.Printf("⚠️ Error leyendo estado del panel de %s: %v", viewerID, err)
		return models.NewPanelState(false)
	}
	return models.NewPanelState(collapsed)
}

// Toggle invierte el estado del panel y lo persiste
func (s *PreferenceService) Toggle(ctx context.Context, viewerID string) (models.PanelState, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	collapsed, err := s.store.PanelCollapsed(ctx, viewerID)
	if err != nil {
		return models.PanelState{}, fmt.Errorf("error obteniendo estado del panel: %w", err)
	}
	collapsed = !collapsed
	if err := s.store.SetPanelCollapsed(ctx, viewerID, collapsed); err != nil {
		return models.PanelState{}, fmt.Errorf("error guardando estado del panel: %w", err)
	}
	return models.NewPanelState(collapsed), nil
}
