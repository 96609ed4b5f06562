package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/rnpad/internal/api/middleware"
	"github.com/GriffinCanCode/rnpad/internal/domain/host"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
	"github.com/GriffinCanCode/rnpad/internal/domain/workspace"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is an inbound client message
type Message struct {
	Type string `json:"type"`
}

// SessionMessage is pushed on connect and after every session transition
type SessionMessage struct {
	Type      string           `json:"type"`
	Session   preview.Snapshot `json:"session"`
	Frame     host.Frame       `json:"frame"`
	Remount   bool             `json:"remount"`
	Timestamp int64            `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	workspaces *workspace.Manager
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler. Upgrades from other origins
// are refused.
func NewHandler(workspaces *workspace.Manager, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workspaces: workspaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// conn serializes writes to one socket
type conn struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	metrics *monitoring.Metrics
}

func (c *conn) send(msgType string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(v); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("out", msgType)
	}
	return nil
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *conn) sendError(msg string) error {
	return c.send("error", map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}

// HandleConnection upgrades the request and streams the caller's session.
// Each connection is one mounted preview surface with its own Host.
func (h *Handler) HandleConnection(c *gin.Context) {
	bid, ok := middleware.BrowserID(c)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	w := h.workspaces.GetOrCreate(bid)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	out := &conn{ws: ws, metrics: h.metrics}
	surface := host.New(w.Device)
	if h.metrics != nil {
		surface.OnRemount(func(host.Frame) { h.metrics.Remounts.Inc() })
	}

	updates, unsubscribe := w.Session.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go h.push(out, surface, updates, done)

	h.read(out, ws)
}

// push forwards session snapshots and keeps the connection alive
func (h *Handler) push(out *conn, surface *host.Host, updates <-chan preview.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			frame, remount := surface.Observe(snap)
			msg := SessionMessage{
				Type:      "session",
				Session:   snap,
				Frame:     frame,
				Remount:   remount,
				Timestamp: time.Now().Unix(),
			}
			if err := out.send(msg.Type, msg); err != nil {
				h.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) read(out *conn, ws *websocket.Conn) {
	ws.SetReadLimit(utils.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		switch msg.Type {
		case "ping":
			h.recordIn("ping")
			_ = out.send("pong", map[string]interface{}{"type": "pong"})
		default:
			h.recordIn("unknown")
			_ = out.sendError("unknown message type")
		}
	}
}

func (h *Handler) recordIn(msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("in", msgType)
	}
}
