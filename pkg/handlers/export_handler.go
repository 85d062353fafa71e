package handlers

import (
	"fmt"
	"log"

	"github.com/backsoul/quizreview/pkg/filter"
	"github.com/backsoul/quizreview/pkg/render"
	"github.com/backsoul/quizreview/pkg/services"
	"github.com/valyala/fasthttp"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler exporta a xlsx el subconjunto seleccionado por la query string
type ExportHandler struct {
	viewerService *services.ViewerService
	exportService *services.ExportService
}

func NewExportHandler(viewerService *services.ViewerService, exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{
		viewerService: viewerService,
		exportService: exportService,
	}
}

// Export maneja GET /api/export.xlsx
func (h *ExportHandler) Export(ctx *fasthttp.RequestCtx) {
	records, err := h.viewerService.Records()
	if err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, render.LoadError(err))
		return
	}

	sel, err := filter.SelectionFromArgs(records, ctx.QueryArgs())
	if err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	matched := filter.Apply(records, sel)

	ctx.SetContentType(xlsxContentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="questions.xlsx"`)
	if err := h.exportService.WriteWorkbook(ctx, matched); err != nil {
		log.Printf("❌ %v", err)
		ctx.ResetBody()
		ctx.Response.Header.Del("Content-Disposition")
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error exportando: %v", err))
		return
	}

	log.Printf("📊 Exportados %d de %d registros", len(matched), len(records))
}
