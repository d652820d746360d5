// Package realtime pushes table events to browsers over WebSocket.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/racha/internal/ledger"
	"github.com/mmynk/racha/internal/metrics"
	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// TableReader loads the snapshot sent to a client when it joins.
type TableReader interface {
	GetTable(ctx context.Context, code string) (*models.Table, error)
}

// Handler serves GET /ws/{code}. A client receives the current table as a
// session:update on join and then every event published for the code.
// Clients never write anything meaningful; inbound frames are discarded.
type Handler struct {
	hub      *notify.Hub
	tables   TableReader
	metrics  *metrics.Metrics
	buffer   int
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. m may be nil.
func NewHandler(hub *notify.Hub, tables TableReader, m *metrics.Metrics) *Handler {
	return &Handler{
		hub:     hub,
		tables:  tables,
		metrics: m,
		buffer:  notify.DefaultBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		http.Error(w, "table code required", http.StatusBadRequest)
		return
	}

	// Subscribe before loading the snapshot so no event falls in between.
	sub := h.hub.Subscribe(code, h.buffer)
	defer sub.Close()

	table, err := h.tables.GetTable(r.Context(), code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "table not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to load table for websocket", "code", code, "error", err)
		http.Error(w, "failed to load table", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.Warn("WebSocket upgrade failed", "code", code, "error", err)
		return
	}
	defer conn.Close()

	h.metrics.ClientConnected(1)
	defer h.metrics.ClientConnected(-1)
	slog.Info("WebSocket client joined", "code", code, "remote_addr", r.RemoteAddr)

	done := make(chan struct{})
	go readPump(conn, done)

	if err := writeEvent(conn, notify.Event{Type: notify.EventUpdate, Code: code, Table: table}); err != nil {
		slog.Warn("Failed to send table snapshot", "code", code, "error", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			slog.Info("WebSocket client left", "code", code)
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(conn, event); err != nil {
				slog.Warn("Failed to push table event", "code", code, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event notify.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(event)
}

// readPump discards inbound frames and handles pongs. It closes done when
// the connection fails or the client goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
