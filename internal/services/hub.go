package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"

	"github.com/tripleaaa123/amongusfr/internal/config"
	"github.com/tripleaaa123/amongusfr/internal/models"
)

// Hub fans game events out to all WebSocket connections of a game. It is the
// notification channel only; clients refetch state over the API when they
// receive an event, the hub never carries authoritative state.
type Hub struct {
	// Game connections: gameId -> set of connections
	games map[string]map[*websocket.Conn]bool

	// Connection to player mapping
	connToPlayer map[*websocket.Conn]string

	broadcast  chan *broadcastMessage
	register   chan *registration
	unregister chan *registration

	metrics *Metrics

	mu sync.RWMutex
}

type registration struct {
	GameID   string
	Conn     *websocket.Conn
	PlayerID string
}

type broadcastMessage struct {
	GameID string
	Event  *models.Event
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		games:        make(map[string]map[*websocket.Conn]bool),
		connToPlayer: make(map[*websocket.Conn]string),
		broadcast:    make(chan *broadcastMessage, config.HubBroadcastBufferSize),
		register:     make(chan *registration),
		unregister:   make(chan *registration),
		metrics:      metrics,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.register:
			h.registerConnection(reg)

		case reg := <-h.unregister:
			h.unregisterConnection(reg)

		case msg := <-h.broadcast:
			h.broadcastToGame(msg)
		}
	}
}

func (h *Hub) registerConnection(reg *registration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[reg.GameID] == nil {
		h.games[reg.GameID] = make(map[*websocket.Conn]bool)
		h.metrics.IncrementGames()
	}
	h.games[reg.GameID][reg.Conn] = true

	if reg.PlayerID != "" {
		h.connToPlayer[reg.Conn] = reg.PlayerID
	}
	h.metrics.IncrementConnections()

	log.Printf("websocket registered: game=%s player=%s (connections in game: %d)",
		reg.GameID, reg.PlayerID, len(h.games[reg.GameID]))
}

func (h *Hub) unregisterConnection(reg *registration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if connections, ok := h.games[reg.GameID]; ok {
		if _, exists := connections[reg.Conn]; exists {
			delete(connections, reg.Conn)
			delete(h.connToPlayer, reg.Conn)
			reg.Conn.Close(websocket.StatusNormalClosure, "")
			h.metrics.DecrementConnections()

			if len(connections) == 0 {
				delete(h.games, reg.GameID)
				h.metrics.DecrementGames()
			}
		}
	}
}

func (h *Hub) broadcastToGame(msg *broadcastMessage) {
	h.mu.RLock()
	connections := h.games[msg.GameID]
	h.mu.RUnlock()

	if len(connections) == 0 {
		return
	}

	data, err := json.Marshal(msg.Event)
	if err != nil {
		log.Printf("error marshaling event: %v", err)
		h.metrics.IncrementBroadcastErrors()
		return
	}

	for conn := range connections {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
			defer cancel()
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				log.Printf("error writing to websocket: %v", err)
				h.metrics.IncrementBroadcastErrors()
				return
			}
			h.metrics.IncrementMessagesSent()
		}(conn)
	}
}

// Broadcast queues an event for every connection of a game. Safe to call on
// a nil hub, which keeps the services testable without a running hub loop.
func (h *Hub) Broadcast(gameID string, event *models.Event) {
	if h == nil {
		return
	}
	h.broadcast <- &broadcastMessage{GameID: gameID, Event: event}
}

func (h *Hub) Register(gameID string, conn *websocket.Conn, playerID string) {
	h.register <- &registration{GameID: gameID, Conn: conn, PlayerID: playerID}
}

func (h *Hub) Unregister(gameID string, conn *websocket.Conn, playerID string) {
	h.unregister <- &registration{GameID: gameID, Conn: conn, PlayerID: playerID}
}

// ConnectionCount reports the live connections for a game.
func (h *Hub) ConnectionCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}
