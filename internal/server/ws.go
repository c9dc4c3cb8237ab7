// Package server provides the HTTP server for the Mudra camera control system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/control"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// packetBuffer is the capacity of the publish queue. Stale control deltas
// are worse than missing ones, so packets beyond this backlog are dropped.
const packetBuffer = 8

// ControlHub broadcasts control packets to connected WebSocket clients.
// The pipeline publishes into a bounded queue; a single broadcast goroutine
// drains it and fans each packet out as a JSON text frame.
type ControlHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	packets chan control.Packet
	stop    chan struct{}
	running atomic.Bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// HubStats contains hub delivery statistics.
type HubStats struct {
	Clients   int    `json:"clients"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// NewControlHub creates a new ControlHub. Call Start to begin broadcasting.
func NewControlHub() *ControlHub {
	return &ControlHub{
		clients: make(map[*websocket.Conn]bool),
		packets: make(chan control.Packet, packetBuffer),
		stop:    make(chan struct{}),
	}
}

// Start launches the broadcast goroutine. Calling Start twice is a no-op.
func (h *ControlHub) Start() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	go h.broadcast()
}

// Stop terminates the broadcast goroutine. Calling Stop twice is a no-op.
func (h *ControlHub) Stop() {
	if !h.running.CompareAndSwap(true, false) {
		return
	}
	close(h.stop)
}

// Publish queues a packet for broadcast. It never blocks: when the queue is
// full the packet is dropped and Publish returns false.
func (h *ControlHub) Publish(p control.Packet) bool {
	select {
	case h.packets <- p:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// ServeHTTP handles WebSocket upgrade requests on /api/control.
func (h *ControlHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast drains the packet queue and writes each packet to every client.
// Clients whose write fails are closed and removed.
func (h *ControlHub) broadcast() {
	for {
		select {
		case <-h.stop:
			return
		case p := <-h.packets:
			msg, err := json.Marshal(p)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()

			h.delivered.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *ControlHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns current hub statistics.
func (h *ControlHub) Stats() HubStats {
	return HubStats{
		Clients:   h.ClientCount(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}
