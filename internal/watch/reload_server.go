package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ReloadServer pushes sync results to connected browsers over WebSocket so
// the generated frontend can refresh itself after a model change.
type ReloadServer struct {
	logger      *zap.Logger
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
	upgrader    websocket.Upgrader
	server      *http.Server
}

// ReloadMessage is the payload broadcast after each sync attempt.
type ReloadMessage struct {
	Type      string   `json:"type"` // "reload" or "error"
	Timestamp int64    `json:"timestamp"`
	Files     []string `json:"files,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// NewReloadServer creates a reload server listening on the given port.
func NewReloadServer(port int, logger *zap.Logger) *ReloadServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &ReloadServer{
		logger:      logger,
		connections: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.Contains(origin, "://localhost") ||
					strings.Contains(origin, "://127.0.0.1")
			},
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", rs.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rs.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: r,
	}
	return rs
}

// Start serves until Shutdown is called.
func (rs *ReloadServer) Start() error {
	rs.logger.Info("reload server listening", zap.String("addr", rs.server.Addr))
	if err := rs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes all client connections and stops the HTTP server.
func (rs *ReloadServer) Shutdown(ctx context.Context) error {
	rs.mutex.Lock()
	for conn := range rs.connections {
		conn.Close()
	}
	rs.connections = make(map[*websocket.Conn]bool)
	rs.mutex.Unlock()
	return rs.server.Shutdown(ctx)
}

// NotifyReload tells connected browsers to refresh.
func (rs *ReloadServer) NotifyReload(files []string) {
	rs.broadcast(&ReloadMessage{
		Type:      "reload",
		Timestamp: time.Now().Unix(),
		Files:     files,
	})
}

// NotifyError surfaces a sync failure in the browser instead of silently
// serving stale artifacts.
func (rs *ReloadServer) NotifyError(err error) {
	rs.broadcast(&ReloadMessage{
		Type:      "error",
		Timestamp: time.Now().Unix(),
		Error:     err.Error(),
	})
}

func (rs *ReloadServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rs.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	rs.mutex.Lock()
	rs.connections[conn] = true
	total := len(rs.connections)
	rs.mutex.Unlock()
	rs.logger.Debug("reload client connected", zap.Int("total", total))

	// Drain reads so close frames are processed; drop on first error
	go func() {
		defer func() {
			rs.mutex.Lock()
			delete(rs.connections, conn)
			rs.mutex.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (rs *ReloadServer) broadcast(message *ReloadMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		rs.logger.Warn("failed to encode reload message", zap.Error(err))
		return
	}

	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	for conn := range rs.connections {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(rs.connections, conn)
			conn.Close()
		}
	}
}
