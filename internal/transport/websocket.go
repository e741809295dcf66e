// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"
	"time"

	applog "github.com/Brian099/music-rhythm-test/internal/log"

	"github.com/gorilla/websocket"
)

const (
	broadcastQueue = 256
	writeWait      = 5 * time.Second
)

// WebSocketHub broadcasts events as JSON text frames to every connected
// client. It does not own an HTTP server; mount Handler on the service mux.
type WebSocketHub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocketHub creates a hub and starts its broadcast loop.
func NewWebSocketHub() *WebSocketHub {
	h := &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // The player page may be served from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, broadcastQueue),
		done:      make(chan struct{}),
	}
	h.wg.Add(1)
	go h.handleBroadcasts()
	return h
}

// ServeHTTP upgrades the request and registers the client.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketHub: Upgrade error: %v", err)
		return
	}

	h.clientsMu.Lock()
	select {
	case <-h.done:
		h.clientsMu.Unlock()
		conn.Close()
		return
	default:
	}
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()
	applog.Debugf("WebSocketHub: Client connected, total: %d", total)

	// Clients never send anything; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

func (h *WebSocketHub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	total := len(h.clients)
	h.clientsMu.Unlock()
	applog.Debugf("WebSocketHub: Client disconnected, total: %d", total)
}

// handleBroadcasts sends queued events to all connected clients.
func (h *WebSocketHub) handleBroadcasts() {
	defer h.wg.Done()
	for {
		select {
		case data := <-h.broadcast:
			h.clientsMu.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteJSON(data); err != nil {
					applog.Warnf("WebSocketHub: Error sending to client: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.clientsMu.Unlock()
		case <-h.done:
			return
		}
	}
}

// Send queues data for broadcast. When the queue is full the event is
// dropped; slow clients must not block generation.
func (h *WebSocketHub) Send(data any) error {
	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.broadcast <- data:
	default:
		applog.Warnf("WebSocketHub: Broadcast queue full, dropping event")
	}
	return nil
}

// Close disconnects every client and stops the broadcast loop.
func (h *WebSocketHub) Close() error {
	h.closeOnce.Do(func() {
		h.clientsMu.Lock()
		close(h.done)
		for client := range h.clients {
			client.Close()
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.clientsMu.Unlock()
		h.wg.Wait()
		applog.Debugf("WebSocketHub: Closed")
	})
	return nil
}

// Ensure WebSocketHub satisfies the interfaces at compile time.
var _ Transport = (*WebSocketHub)(nil)
var _ http.Handler = (*WebSocketHub)(nil)
