package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ambient-assistant/internal/api"
	"ambient-assistant/internal/bus"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

// TopicError is the envelope type for rejected inbound messages.
const TopicError = "error"

// Envelope is the websocket frame in both directions: Type is a bus topic.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// outbound lists the bus topics pushed to websocket clients.
var outbound = []string{
	models.TopicAnswerPartial,
	models.TopicAnswerFinal,
	models.TopicPipelinePaused,
	models.TopicPipelineResumed,
	models.TopicConversationTurn,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The UI is a local app; the service binds to loopback.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub pushes bus events to connected presentation clients and forwards
// their commands to the control surface.
type Hub struct {
	control *api.Control
	logger  zerolog.Logger

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu    sync.RWMutex
	count int
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	// send is closed by the hub; replies is never closed.
	send    chan []byte
	replies chan []byte
}

func NewHub(control *api.Control) *Hub {
	return &Hub{
		control:    control,
		logger:     logging.WithComponent("websocket"),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.setCount()
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setCount()
			h.logger.Info().Int("clients", len(h.clients)).Msg("Client connected")

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.setCount()
				h.logger.Info().Int("clients", len(h.clients)).Msg("Client disconnected")
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn().Msg("Client send buffer full, dropping client")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.setCount()
		}
	}
}

// Attach subscribes the hub to the outbound topics until ctx is done.
func (h *Hub) Attach(ctx context.Context, sub bus.Subscriber) error {
	for _, topic := range outbound {
		err := bus.OnContext(ctx, sub, topic, func(ctx context.Context, payload json.RawMessage) error {
			frame, err := json.Marshal(Envelope{Type: topic, Data: payload})
			if err != nil {
				return err
			}
			select {
			case h.broadcast <- frame:
			case <-ctx.Done():
			case <-h.done:
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), replies: make(chan []byte, 8)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// handle applies one inbound command.
func (h *Hub) handle(env Envelope) error {
	switch env.Type {
	case models.TopicUserManualQuery:
		var q models.UserQuery
		if err := json.Unmarshal(env.Data, &q); err != nil {
			return err
		}
		return h.control.Ask(q)
	case models.TopicUserFeedback:
		var f models.UserFeedback
		if err := json.Unmarshal(env.Data, &f); err != nil {
			return err
		}
		return h.control.Feedback(f)
	case models.TopicUserPause:
		var p models.UserPause
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return err
		}
		return h.control.Pause(p)
	case models.TopicTriggerHotkey:
		return h.control.Hotkey()
	case models.TopicInputTyped:
		var t models.TypedInput
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return err
		}
		return h.control.Typed(t)
	default:
		return errors.New("unsupported message type " + env.Type)
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("WebSocket read failed")
			}
			return
		}
		if err := c.hub.handle(env); err != nil {
			c.reject(err)
		}
	}
}

func (c *client) reject(err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	frame, _ := json.Marshal(Envelope{Type: TopicError, Data: data})
	select {
	case c.replies <- frame:
	default:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case msg := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
