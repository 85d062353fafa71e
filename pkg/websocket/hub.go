package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
)

const (
	// writeWait tiempo máximo para escribir un mensaje en una conexión
	writeWait = 10 * time.Second
	// clientBuffer mensajes pendientes por conexión antes de descartarla
	clientBuffer = 16
)

// Client conexión de un visitante. Un visitante puede tener varias pestañas.
type Client struct {
	ViewerID string
	Conn     *websocket.Conn
	send     chan []byte
}

type outgoing struct {
	client   *Client
	viewerID string
	data     []byte
}

// Hub reparte los mensajes a la cola de cada conexión. Cada cliente tiene su
// propio escritor, así una pestaña que no lee no detiene al resto.
type Hub struct {
	viewers    map[string]map[*Client]bool
	send       chan outgoing
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		viewers:    make(map[string]map[*Client]bool),
		send:       make(chan outgoing, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.send = make(chan []byte, clientBuffer)
			h.mutex.Lock()
			if h.viewers[client.ViewerID] == nil {
				h.viewers[client.ViewerID] = make(map[*Client]bool)
			}
			h.viewers[client.ViewerID][client] = true
			h.mutex.Unlock()
			go client.writePump()
			log.Printf("Cliente WebSocket conectado (%s). Total: %d", client.ViewerID, h.Count())

		case client := <-h.unregister:
			h.remove(client)
			log.Printf("Cliente WebSocket desconectado (%s). Total: %d", client.ViewerID, h.Count())

		case msg := <-h.send:
			for _, client := range h.targets(msg) {
				select {
				case client.send <- msg.data:
				default:
					log.Printf("⚠️ Cliente WebSocket lento (%s), cerrando conexión", client.ViewerID)
					h.remove(client)
				}
			}
		}
	}
}

// writePump es el único escritor de la conexión. Al cerrarse la cola cierra
// la conexión, lo que termina también el bucle de lectura del handler.
func (c *Client) writePump() {
	defer c.Conn.Close()

	failed := false
	for data := range c.send {
		if failed {
			continue
		}
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error enviando mensaje WebSocket: %v", err)
			failed = true
			c.Conn.Close()
		}
	}
}

func (h *Hub) targets(msg outgoing) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if msg.client != nil {
		if h.viewers[msg.client.ViewerID][msg.client] {
			return []*Client{msg.client}
		}
		return nil
	}
	clients := make([]*Client, 0, len(h.viewers[msg.viewerID]))
	for client := range h.viewers[msg.viewerID] {
		clients = append(clients, client)
	}
	return clients
}

// remove saca al cliente del hub y cierra su cola una sola vez
func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, ok := h.viewers[client.ViewerID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.viewers, client.ViewerID)
	}
	close(client.send)
}

// Count número de conexiones abiertas
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	total := 0
	for _, conns := range h.viewers {
		total += len(conns)
	}
	return total
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Send envía un mensaje a una sola conexión
func (h *Hub) Send(client *Client, msgType string, data interface{}) {
	payload, ok := encode(msgType, data)
	if !ok {
		return
	}
	h.send <- outgoing{client: client, data: payload}
}

// BroadcastViewer envía un mensaje a todas las pestañas de un visitante
func (h *Hub) BroadcastViewer(viewerID string, msgType string, data interface{}) {
	payload, ok := encode(msgType, data)
	if !ok {
		return
	}
	h.send <- outgoing{viewerID: viewerID, data: payload}
}

func encode(msgType string, data interface{}) ([]byte, bool) {
	msg := Message{
		Type: msgType,
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error serializando mensaje: %v", err)
		return nil, false
	}
	return payload, true
}
