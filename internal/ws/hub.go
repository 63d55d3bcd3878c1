// Package ws maintains the set of connected feed sessions and fans
// attack events out to all of them.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/pkg/models"
)

// Message envelope types pushed to feed sessions.
const (
	MessageTypeStatus      = "status"
	MessageTypeAttackEvent = "attack_event"
)

// Message wraps a payload pushed over a session's stream.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// StatusPayload is the one-time per-connection protection-mode summary.
type StatusPayload struct {
	Message string `json:"message"`
}

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mevshield_ws_connections_total",
		Help: "Total number of feed sessions opened",
	})
	disconnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mevshield_ws_disconnections_total",
		Help: "Total number of feed sessions closed",
	})
	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mevshield_ws_broadcasts_total",
		Help: "Total number of events broadcast to the feed",
	})
	droppedMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mevshield_ws_dropped_messages_total",
		Help: "Total number of messages dropped for slow or gone sessions",
	})
)

// Client is a single connected feed session.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan Message
	hub  *Hub
}

// Hub owns the session registry. Registration, unregistration, and
// fan-out all pass through one run loop, so each session observes
// events in emission order.
type Hub struct {
	logger *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message

	mu      sync.RWMutex
	clients map[*Client]struct{}

	statusMessage string

	upgrader websocket.Upgrader

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewHub creates a Hub and starts its run loop. statusMessage is sent
// once to every session on connect.
func NewHub(logger *zap.Logger, statusMessage string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:        logger,
		register:      make(chan *Client, 64),
		unregister:    make(chan *Client, 64),
		broadcast:     make(chan Message, 256),
		clients:       make(map[*Client]struct{}),
		statusMessage: statusMessage,
		ctx:           ctx,
		cancel:        cancel,
		shutdown:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	h.wg.Add(1)
	go h.run()

	return h
}

func (h *Hub) run() {
	defer h.wg.Done()
	defer h.logger.Info("Hub run loop stopped")

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.shutdown:
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	connectionsTotal.Inc()

	// One-time protection-mode summary; queued before any later
	// broadcast so it is always the session's first frame.
	if msg, err := newMessage(MessageTypeStatus, StatusPayload{Message: h.statusMessage}); err == nil {
		h.deliver(client, msg)
	}

	h.logger.Debug("Feed session registered", zap.String("client_id", client.id))
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !known {
		return
	}

	close(client.send)
	disconnectionsTotal.Inc()

	h.logger.Debug("Feed session unregistered", zap.String("client_id", client.id))
}

func (h *Hub) handleBroadcast(msg Message) {
	h.mu.RLock()
	for client := range h.clients {
		h.deliver(client, msg)
	}
	h.mu.RUnlock()

	broadcastsTotal.Inc()
}

// deliver queues msg for one session without blocking the run loop. A
// slow or silently gone session loses the message rather than stalling
// delivery to the others.
func (h *Hub) deliver(client *Client, msg Message) {
	select {
	case client.send <- msg:
	default:
		droppedMessagesTotal.Inc()
		h.logger.Warn("Dropping message for slow feed session",
			zap.String("client_id", client.id),
			zap.String("type", msg.Type))
	}
}

func newMessage(msgType string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}

// Broadcast fans one attack event out to every currently registered
// session, best-effort.
func (h *Hub) Broadcast(event models.AttackEvent) {
	msg, err := newMessage(MessageTypeAttackEvent, event)
	if err != nil {
		h.logger.Error("Failed to encode attack event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of currently registered sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the HTTP request and registers the session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	c := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, 256),
		hub:  h,
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump consumes inbound frames until the connection errors, then
// unregisters the session. Once the hub has shut down nobody drains
// the unregister channel, so the handoff gives up with the context.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued messages and heartbeats to the session.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() { ticker.Stop(); c.conn.Close() }()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown stops the run loop and closes every session.
func (h *Hub) Shutdown() error {
	h.logger.Info("Shutting down feed hub")

	close(h.shutdown)
	h.cancel()
	h.wg.Wait()

	// The run loop is stopped, so no send or close can race these.
	// Closing the send channel lets each writePump exit without
	// waiting for its next heartbeat tick.
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	return nil
}
