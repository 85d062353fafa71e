package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"

	"github.com/backsoul/quizreview/pkg/filter"
	"github.com/backsoul/quizreview/pkg/render"
	"github.com/backsoul/quizreview/pkg/services"
	"github.com/valyala/fasthttp"
)

// HealthChecker dependencia externa opcional verificada por /api/health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ViewerHandler maneja la página del visor y la API JSON de registros
type ViewerHandler struct {
	viewerService     *services.ViewerService
	preferenceService *services.PreferenceService
	health            HealthChecker
}

// NewViewerHandler crea una nueva instancia del handler. health puede ser nil.
func NewViewerHandler(viewerService *services.ViewerService, preferenceService *services.PreferenceService, health HealthChecker) *ViewerHandler {
	return &ViewerHandler{
		viewerService:     viewerService,
		preferenceService: preferenceService,
		health:            health,
	}
}

// Page maneja GET /
func (h *ViewerHandler) Page(ctx *fasthttp.RequestCtx) {
	panel := h.preferenceService.Panel(ctx, viewerID(ctx))
	data := render.PageData{
		Collapsed: panel.Collapsed,
		Glyph:     panel.Glyph,
	}

	if err := h.viewerService.LoadError(); err != nil {
		data.LoadError = render.LoadError(err)
	} else {
		state, err := h.viewerService.InitialState()
		if err != nil {
			h.pageError(ctx, err)
			return
		}
		view, err := h.viewerService.Render(state)
		if err != nil {
			h.pageError(ctx, err)
			return
		}
		data.Options = view.Choices
		data.Results = view.Results
		data.Search = view.Selection.Search
		data.SelectedOnly = view.Selection.SelectedOnly
		data.Query = template.URL(view.Query)
	}

	ctx.SetContentType("text/html; charset=utf-8")
	if err := render.Page(ctx, data); err != nil {
		log.Printf("❌ %v", err)
		ctx.ResetBody()
		ctx.Error("Error renderizando página", fasthttp.StatusInternalServerError)
	}
}

func (h *ViewerHandler) pageError(ctx *fasthttp.RequestCtx, err error) {
	log.Printf("❌ Error preparando la vista: %v", err)
	ctx.Error("Error preparando la vista", fasthttp.StatusInternalServerError)
}

// GetAllQuestions maneja GET /api/questions
func (h *ViewerHandler) GetAllQuestions(ctx *fasthttp.RequestCtx) {
	records, err := h.viewerService.Records()
	if err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, render.LoadError(err))
		return
	}

	respondWithSuccess(ctx, records, fmt.Sprintf("%d registros", len(records)))
}

// GetFacets maneja GET /api/facets?class=A&class=B
func (h *ViewerHandler) GetFacets(ctx *fasthttp.RequestCtx) {
	var classes []string
	args := ctx.QueryArgs()
	if args.Has(filter.ParamClass) {
		classes = []string{}
		for _, v := range args.PeekMulti(filter.ParamClass) {
			classes = append(classes, string(v))
		}
	}

	opts, err := h.viewerService.Facets(classes)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, render.LoadError(err))
		return
	}

	respondWithSuccess(ctx, opts, "Facetas obtenidas exitosamente")
}

// Filter maneja POST /api/filter con una selección JSON
func (h *ViewerHandler) Filter(ctx *fasthttp.RequestCtx) {
	var sel filter.Selection
	if err := json.Unmarshal(ctx.PostBody(), &sel); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Selección inválida: %v", err))
		return
	}

	resp, err := h.viewerService.Filter(sel)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, render.LoadError(err))
		return
	}

	respondWithSuccess(ctx, resp, resp.CountLine)
}

// HealthCheck maneja GET /api/health
func (h *ViewerHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	status := map[string]interface{}{
		"status":      "healthy",
		"preferences": "memory",
	}

	if err := h.viewerService.LoadError(); err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
		return
	}
	if h.health != nil {
		if err := h.health.HealthCheck(ctx); err != nil {
			respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
			return
		}
		status["preferences"] = "redis"
	}

	respondWithSuccess(ctx, status, "Servicio funcionando correctamente")
}
