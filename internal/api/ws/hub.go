// Package ws streams reported session messages to websocket clients and
// accepts command lines from them.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/monitoring"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	// CommandTimeout bounds one command received over the stream
	CommandTimeout = 2 * time.Minute
)

// Frame types
const (
	TypeSystem  = "system"
	TypeMessage = "message"
	TypeError   = "error"
	TypeCommand = "command"
	TypePing    = "ping"
	TypePong    = "pong"
)

// Frame is one JSON frame on the stream
type Frame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Command   string `json:"command,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Executor runs a command line; *command.Dispatcher satisfies it
type Executor interface {
	Execute(ctx context.Context, line string) error
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans reported messages out to every connected client. It implements
// session.Reporter.
type Hub struct {
	executor Executor
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates a hub. executor may be nil, in which case command frames are rejected.
func NewHub(executor Executor, logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		executor: executor,
		logger:   logger.Named("ws"),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is enforced by the CORS middleware
			},
		},
		clients: make(map[string]*client),
	}
}

// SetExecutor wires the command executor after construction
func (h *Hub) SetExecutor(executor Executor) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.executor = executor
}

// Message implements session.Reporter
func (h *Hub) Message(text string) {
	h.broadcast(Frame{Type: TypeMessage, Text: text})
}

// Error implements session.Reporter
func (h *Hub) Error(text string) {
	h.broadcast(Frame{Type: TypeError, Text: text})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(frame Frame) {
	data, err := encode(frame)
	if err != nil {
		h.logger.Error("Failed to encode frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, data)
	}
}

func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
		if h.metrics != nil {
			h.metrics.IncWSMessages()
		}
	default:
		h.logger.Warn("Dropping frame for slow client", zap.String("client", c.id))
	}
}

func encode(frame Frame) ([]byte, error) {
	if frame.Timestamp == 0 {
		frame.Timestamp = time.Now().Unix()
	}
	return sonic.Marshal(frame)
}

// HandleConnection upgrades the request and serves the client until it disconnects
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(cl)
	}()

	h.reply(cl, Frame{Type: TypeSystem, Text: "connected " + cl.id})
	h.readPump(c.Request.Context(), cl)

	h.unregister(cl)
	<-done
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("Client connected", zap.String("client", c.id))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.close()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("Client disconnected", zap.String("client", c.id))
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := sonic.Unmarshal(data, &frame); err != nil {
			h.reply(c, Frame{Type: TypeError, Text: "invalid frame"})
			continue
		}

		switch frame.Type {
		case TypePing:
			h.reply(c, Frame{Type: TypePong})
		case TypeCommand:
			h.runCommand(ctx, c, frame.Command)
		default:
			h.reply(c, Frame{Type: TypeError, Text: "unknown frame type"})
		}
	}
}

func (h *Hub) runCommand(ctx context.Context, c *client, line string) {
	h.mu.RLock()
	executor := h.executor
	h.mu.RUnlock()
	if executor == nil {
		h.reply(c, Frame{Type: TypeError, Text: "commands are not enabled"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()
	// Command output goes to the issuing client only
	ctx = session.WithReporter(ctx, &clientReporter{hub: h, client: c})
	_ = executor.Execute(ctx, line)
}

func (h *Hub) reply(c *client, frame Frame) {
	data, err := encode(frame)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; ok {
		h.enqueue(c, data)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("WebSocket write error", zap.String("client", c.id), zap.Error(err))
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
	}
}

// clientReporter reports to a single client
type clientReporter struct {
	hub    *Hub
	client *client
}

func (r *clientReporter) Message(text string) {
	r.hub.reply(r.client, Frame{Type: TypeMessage, Text: text})
}

func (r *clientReporter) Error(text string) {
	r.hub.reply(r.client, Frame{Type: TypeError, Text: text})
}
