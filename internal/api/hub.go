package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/talgya/grid-world/internal/engine"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wsClient is one websocket connection. Writes from the broadcaster and
// from the per-connection read loop interleave, so they serialize on mu.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub streams state snapshots to websocket clients and accepts food
// drops from them.
type Hub struct {
	sim *engine.Guarded

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub creates an empty hub bound to one simulation.
func NewHub(sim *engine.Guarded) *Hub {
	return &Hub{
		sim:     sim,
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleWS upgrades the connection, greets the client with the grid
// dimensions, then serves inbound commands until the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("websocket client connected", "clients", n)

	width, height := h.sim.Size()
	_ = client.send(map[string]any{
		"type":   "hello",
		"width":  width,
		"height": height,
		"tick":   h.sim.Snapshot().Tick,
	})

	for {
		var msg struct {
			Type   string   `json:"type"`
			X      *float64 `json:"x"`
			Y      *float64 `json:"y"`
			Amount *float64 `json:"amount"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "drop_food":
			if msg.X == nil || msg.Y == nil {
				_ = client.send(map[string]any{"type": "error", "error": "drop_food needs x and y"})
				continue
			}
			amount := 20.0
			if msg.Amount != nil {
				amount = *msg.Amount
			}
			h.sim.DepositFood(int(*msg.X), int(*msg.Y), amount)
			_ = client.send(map[string]any{"type": "ack"})
		default:
			_ = client.send(map[string]any{"type": "error", "error": "unknown message type"})
		}
	}

	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	conn.Close()
	slog.Info("websocket client disconnected")
}

// Broadcast pushes one state snapshot to every client, dropping the
// ones that fail.
func (h *Hub) Broadcast(st engine.State) {
	h.mu.Lock()
	list := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		if err := c.send(st); err != nil {
			slog.Warn("websocket send failed, dropping client", "error", err)
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			c.conn.Close()
		}
	}
}

// CloseAll disconnects every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
