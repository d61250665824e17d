package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/gorilla/websocket"
)

// Message is the envelope for websocket frames sent to canvas viewers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans accepted cell writes out to websocket subscribers, grouped by
// event. It implements [place.Broadcaster].
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[string]map[*hubClient]bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[string]map[*hubClient]bool),
	}
}

// CellWritten broadcasts an accepted write to every subscriber of the
// event's canvas. Slow subscribers are dropped rather than blocking the
// write path.
func (h *Hub) CellWritten(eventID string, cell models.Cell) {
	payload, err := json.Marshal(Message{Type: "cell", Data: cell})
	if err != nil {
		h.logger.Error("failed to encode cell message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[eventID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket subscriber", "event", eventID)
			go client.conn.Close()
		}
	}
}

// Subscribe upgrades the request to a websocket and streams cell writes
// for the event until the client disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, eventID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, 64)}
	h.register(eventID, client)

	go h.writePump(client)
	h.readLoop(eventID, client)
}

func (h *Hub) register(eventID string, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[eventID] == nil {
		h.clients[eventID] = make(map[*hubClient]bool)
	}
	h.clients[eventID][client] = true
	h.logger.Debug("websocket subscriber connected", "event", eventID, "total", len(h.clients[eventID]))
}

func (h *Hub) unregister(eventID string, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[eventID][client]; ok {
		delete(h.clients[eventID], client)
		close(client.send)
	}
	h.logger.Debug("websocket subscriber disconnected", "event", eventID, "total", len(h.clients[eventID]))
}

// writePump drains the client's send channel onto the connection.
func (h *Hub) writePump(client *hubClient) {
	for payload := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			client.conn.Close()
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, nil)
	client.conn.Close()
}

// readLoop discards inbound frames; its job is noticing disconnects.
func (h *Hub) readLoop(eventID string, client *hubClient) {
	defer h.unregister(eventID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
