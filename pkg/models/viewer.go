package models

// Tipos de evento enviados por el navegador a través de /ws
const (
	EventSelect       = "select"
	EventSearch       = "search"
	EventSelectedOnly = "selectedOnly"
	EventClear        = "clear"
	EventClearFacet   = "clearFacet"
	EventTogglePanel  = "togglePanel"
)

// Tipos de mensaje enviados por el servidor
const (
	MessageView  = "view"
	MessagePanel = "panel"
	MessageError = "error"
)

// ViewerEvent evento de un control de filtro
type ViewerEvent struct {
	Type    string   `json:"type"`
	Facet   string   `json:"facet,omitempty"`
	Values  []string `json:"values,omitempty"`
	Value   string   `json:"value,omitempty"`
	Checked bool     `json:"checked,omitempty"`
}

// PanelState estado persistido del panel de filtros
type PanelState struct {
	Collapsed bool   `json:"collapsed"`
	Glyph     string `json:"glyph"`
}

// NewPanelState construye el estado con el glifo correspondiente
func NewPanelState(collapsed bool) PanelState {
	glyph := "−"
	if collapsed {
		glyph = "+"
	}
	return PanelState{Collapsed: collapsed, Glyph: glyph}
}
