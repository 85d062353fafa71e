package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/backsoul/quizreview/pkg/models"
	"github.com/backsoul/quizreview/pkg/render"
	"github.com/backsoul/quizreview/pkg/services"
	websocketHub "github.com/backsoul/quizreview/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

// SocketHandler recibe los eventos de los controles de filtro por WebSocket
// y responde con la vista recalculada
type SocketHandler struct {
	viewerService     *services.ViewerService
	preferenceService *services.PreferenceService
	hub               *websocketHub.Hub
}

func NewSocketHandler(viewerService *services.ViewerService, preferenceService *services.PreferenceService, hub *websocketHub.Hub) *SocketHandler {
	return &SocketHandler{
		viewerService:     viewerService,
		preferenceService: preferenceService,
		hub:               hub,
	}
}

// maxEventSize tamaño máximo de un evento entrante; los eventos reales ocupan
// unos cientos de bytes
const maxEventSize = 8 << 10

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true
	},
}

// HandleWebSocket maneja GET /ws. Cada conexión tiene su propio estado de
// filtros y procesa un evento a la vez.
func (sh *SocketHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	if err := sh.viewerService.LoadError(); err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, render.LoadError(err))
		return
	}
	id := viewerID(ctx)

	err := upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		defer ws.Close()
		ws.SetReadLimit(maxEventSize)

		client := &websocketHub.Client{ViewerID: id, Conn: ws}
		sh.hub.Register(client)
		defer sh.hub.Unregister(client)

		state, err := sh.viewerService.InitialState()
		if err != nil {
			sh.hub.Send(client, models.MessageError, err.Error())
			return
		}
		view, err := sh.viewerService.Render(state)
		if err != nil {
			sh.hub.Send(client, models.MessageError, err.Error())
			return
		}
		sh.hub.Send(client, models.MessageView, view)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("Error leyendo mensaje WebSocket: %v", err)
				}
				return
			}

			var ev models.ViewerEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				sh.hub.Send(client, models.MessageError, "evento inválido: "+err.Error())
				continue
			}

			if ev.Type == models.EventTogglePanel {
				panel, err := sh.preferenceService.Toggle(context.Background(), id)
				if err != nil {
					log.Printf("⚠️ %v", err)
					sh.hub.Send(client, models.MessageError, err.Error())
					continue
				}
				sh.hub.BroadcastViewer(id, models.MessagePanel, panel)
				continue
			}

			next, view, err := sh.viewerService.Dispatch(state, ev)
			if err != nil {
				sh.hub.Send(client, models.MessageError, err.Error())
				continue
			}
			state = next
			sh.hub.Send(client, models.MessageView, view)
		}
	})

	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
	}
}
