package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/ppe.watch/internal/monitoring"
	"github.com/banshee-data/ppe.watch/internal/ppe"
	"github.com/banshee-data/ppe.watch/internal/timeutil"
)

// hubPollInterval is how often the hub checks the status store for a new
// snapshot to broadcast.
const hubPollInterval = 250 * time.Millisecond

var upgrader = websocket.Upgrader{
	// The dashboard may be opened from any LAN origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes status snapshots to websocket clients. It couples to the
// pipeline only through the status store, like every other reader: it polls
// the store and broadcasts whenever the snapshot timestamp moves.
type Hub struct {
	status *ppe.StatusStore
	clock  timeutil.Clock

	mu      sync.Mutex
	clients map[*websocket.Conn]string
}

// NewHub creates a hub reading from the given status store.
func NewHub(status *ppe.StatusStore, clock timeutil.Clock) *Hub {
	return &Hub{
		status:  status,
		clock:   clock,
		clients: make(map[*websocket.Conn]string),
	}
}

// Run broadcasts status changes until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(hubPollInterval)
	defer ticker.Stop()

	var lastTimestamp float64
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C():
			snap := h.status.Read()
			if snap.Timestamp == lastTimestamp {
				continue
			}
			lastTimestamp = snap.Timestamp
			h.broadcast(snap)
		}
	}
}

// handleConnect upgrades the connection and parks it in the client set. The
// read loop exists only to notice disconnects.
func (h *Hub) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("ws: upgrade failed: %v", err)
		return
	}

	clientID := uuid.NewString()
	h.mu.Lock()
	h.clients[conn] = clientID
	total := len(h.clients)
	h.mu.Unlock()
	monitoring.Logf("ws: client %s connected (%d total)", clientID, total)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) broadcast(snap ppe.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		monitoring.Logf("ws: marshal snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, clientID := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			monitoring.Logf("ws: client %s write failed: %v", clientID, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	clientID, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	total := len(h.clients)
	h.mu.Unlock()

	conn.Close()
	if ok {
		monitoring.Logf("ws: client %s disconnected (%d total)", clientID, total)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// ClientCount reports the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
