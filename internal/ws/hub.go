package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/pkg/logger"
)

// EventTypeState is pushed after every committed auction mutation
const EventTypeState = "state"

// Event is the wire format pushed to connected clients
type Event struct {
	Type     string      `json:"type"`
	LeagueID string      `json:"league_id"`
	Data     interface{} `json:"data,omitempty"`
}

// Config holds WebSocket connection settings
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default WebSocket settings
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

type broadcastMessage struct {
	leagueID string
	event    Event
}

// Hub fans auction state out to spectators grouped by league. The push is
// best effort: slow consumers are dropped, and clients reconcile through
// the state endpoint on reconnect.
type Hub struct {
	leagueConns map[string]map[*connection]bool
	mu          sync.RWMutex

	upgrader    websocket.Upgrader
	config      Config
	broadcastCh chan broadcastMessage
	logger      *logger.Logger
}

type connection struct {
	id       string
	leagueID string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
}

// NewHub creates a WebSocket hub
func NewHub(config Config, logger *logger.Logger) *Hub {
	return &Hub{
		leagueConns: make(map[string]map[*connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 256),
		logger:      logger,
	}
}

// Start processes broadcasts until the context is canceled
func (h *Hub) Start(ctx context.Context) {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			h.closeAll()
			return
		case msg := <-h.broadcastCh:
			h.handleBroadcast(msg)
		}
	}
}

// NotifyState implements service.StateNotifier
func (h *Hub) NotifyState(leagueID string, state *domain.StateResponse) {
	msg := broadcastMessage{
		leagueID: leagueID,
		event:    Event{Type: EventTypeState, LeagueID: leagueID, Data: state},
	}
	select {
	case h.broadcastCh <- msg:
	default:
		h.logger.WithField("league_id", leagueID).Warn("broadcast channel full, dropping state push")
	}
}

// Serve handles GET /api/v1/leagues/{leagueID}/auction/ws
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		http.Error(w, "league id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &connection{
		id:       uuid.NewString(),
		leagueID: leagueID,
		conn:     conn,
		send:     make(chan []byte, 64),
		hub:      h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	h.logger.WithFields(map[string]interface{}{
		"connection_id": c.id,
		"league_id":     leagueID,
	}).Debug("websocket connection established")
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.leagueConns[c.leagueID] == nil {
		h.leagueConns[c.leagueID] = make(map[*connection]bool)
	}
	h.leagueConns[c.leagueID][c] = true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.leagueConns[c.leagueID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.leagueConns, c.leagueID)
	}
}

func (h *Hub) handleBroadcast(msg broadcastMessage) {
	payload, err := json.Marshal(msg.event)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal websocket event")
		return
	}

	// Sends happen under the read lock; unregister closes send channels only
	// under the write lock, so a channel cannot close mid-send.
	h.mu.RLock()
	var slow []*connection
	for c := range h.leagueConns[msg.leagueID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// Slow consumers get dropped rather than stalling the league.
	for _, c := range slow {
		h.unregister(c)
		c.conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for leagueID, conns := range h.leagueConns {
		for c := range conns {
			close(c.send)
			c.conn.Close()
		}
		delete(h.leagueConns, leagueID)
	}
}

// ConnectionCount reports active connections for a league
func (h *Hub) ConnectionCount(leagueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.leagueConns[leagueID])
}

func (c *connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}

func (c *connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	// Clients only listen; anything they send is discarded.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("connection_id", c.id).Debug("websocket closed unexpectedly")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
