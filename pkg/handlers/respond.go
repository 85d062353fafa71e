package handlers

import (
	"encoding/json"

	"github.com/backsoul/quizreview/pkg/models"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// ViewerCookie cookie que identifica al visitante para sus preferencias
const ViewerCookie = "viewer_id"

// respondWithJSON envía una respuesta JSON
func respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success": false, "error": "Error al serializar respuesta"}`)
		return
	}

	ctx.SetBody(jsonData)
}

// respondWithError envía una respuesta de error
func respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	respondWithJSON(ctx, statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithSuccess envía una respuesta exitosa
func respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	respondWithJSON(ctx, fasthttp.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// viewerID devuelve el id del visitante desde la cookie, o genera uno nuevo
// y lo fija en la respuesta
func viewerID(ctx *fasthttp.RequestCtx) string {
	if raw := ctx.Request.Header.Cookie(ViewerCookie); len(raw) > 0 {
		if id, err := uuid.ParseBytes(raw); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(ViewerCookie)
	cookie.SetValue(id)
	cookie.SetPath("/")
	cookie.SetMaxAge(365 * 24 * 60 * 60)
	cookie.SetHTTPOnly(true)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	ctx.Response.Header.SetCookie(cookie)
	return id
}
