package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/domain/identity"
	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Sessions resolves the user a subscriber is listening for
type Sessions interface {
	ActiveProfile(ctx context.Context) (*identity.Profile, error)
}

// Handler upgrades change feed requests
type Handler struct {
	hub      *Hub
	sessions Sessions
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu       sync.Mutex
	draining bool
	active   sync.WaitGroup
}

// NewHandler creates a change feed handler. checkOrigin may be nil to
// accept every origin.
func NewHandler(hub *Hub, sessions Sessions, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger.Named("ws"),
	}
}

// HandleConnection streams the active user's VFS events as JSON messages
func (h *Handler) HandleConnection(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.sessions.ActiveProfile(ctx)
	if err != nil {
		kind := errs.KindOf(err)
		status := http.StatusInternalServerError
		if kind == errs.NotFound {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, gin.H{"error": errs.Message(err), "kind": kind.String()})
		return
	}

	if !h.acquire() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down", "kind": errs.IOError.String()})
		return
	}
	defer h.active.Done()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", tracing.Field(ctx), zap.Error(err))
		return
	}
	defer conn.Close()

	sub, ok := h.hub.subscribe(profile.Username)
	if !ok {
		return
	}
	defer h.hub.unsubscribe(sub)

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, sub, closed)
}

// acquire counts a connection unless Wait has started
func (h *Handler) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.active.Add(1)
	return true
}

// Wait refuses new connections and blocks until every accepted one has been
// released. Call it after the hub is closed.
func (h *Handler) Wait() {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()
	h.active.Wait()
}

// readPump discards client messages and watches for the connection closing
func (h *Handler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sub *subscriber, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
