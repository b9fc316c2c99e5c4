// Package monitoring streams served predictions to websocket subscribers.
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one message pushed to subscribers.
type Event struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

const (
	EventPrediction = "prediction"
	EventHeartbeat  = "heartbeat"
)

const (
	writeDeadline     = 30 * time.Second
	heartbeatInterval = 30 * time.Second
	clientQueueSize   = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub fans served predictions out to any number of websocket clients. Slow
// clients are dropped rather than allowed to stall the broadcast loop.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewHub builds a hub; call Start to run its broadcast loop.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the broadcast loop until Stop is called.
func (h *Hub) Start() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.String("client", c.id), zap.Int("total", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.String("client", c.id), zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	h.cancel()
}

// PublishPrediction broadcasts a served prediction. The payload must be
// JSON-marshalable; a full broadcast queue drops the event.
func (h *Hub) PublishPrediction(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to encode prediction event", zap.Error(err))
		return
	}
	event := Event{
		Type:      EventPrediction,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode event envelope", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping prediction event")
	}
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		id:   uuid.NewString(),
	}
	h.register <- c

	go c.writePump(h.logger)
	go c.readPump(h)
}

func (c *client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write error", zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pings are answered; inbound content is
// ignored, the stream is one-way.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
