// Package feed streams new ledger entries to websocket clients. A client
// that connects late first receives the recent entries it missed.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"wallet-tracker/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Envelope is the wire message sent to clients.
type Envelope struct {
	Type   string             `json:"type"`
	Data   *model.TradeRecord `json:"data,omitempty"`
	Stats  *model.Stats       `json:"stats,omitempty"`
	Seq    int64              `json:"seq"`
	Replay bool               `json:"replay,omitempty"`
}

// Hub tracks websocket clients and broadcasts trade envelopes to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	replay  *ReplayBuffer

	// OnClientCount is called with the new total after connect/disconnect.
	OnClientCount func(n int)
}

// NewHub creates a hub replaying up to replaySize recent records.
func NewHub(replaySize int) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(replaySize),
	}
}

func encodeTrade(rec model.TradeRecord, stats *model.Stats) ([]byte, error) {
	return json.Marshal(Envelope{Type: "trade", Data: &rec, Stats: stats, Seq: rec.Seq})
}

// Seed loads already-recorded entries into the replay buffer without
// broadcasting them, e.g. after restoring the ledger on start.
func (h *Hub) Seed(records []model.TradeRecord) {
	for _, rec := range records {
		env, err := encodeTrade(rec, nil)
		if err != nil {
			log.Printf("[feed] encode %s: %v", rec.TxID, err)
			continue
		}
		h.replay.Push(rec.Seq, env)
	}
}

// Broadcast sends a trade envelope to every client and keeps it for replay.
// Clients whose send buffer is full miss the message.
func (h *Hub) Broadcast(ev model.TradeEvent) {
	env, err := encodeTrade(ev.Record, &ev.Stats)
	if err != nil {
		log.Printf("[feed] encode %s: %v", ev.Record.TxID, err)
		return
	}
	h.replay.Push(ev.Record.Seq, env)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
		}
	}
}

// Run broadcasts events from ch until ctx ends or ch is closed.
func (h *Hub) Run(ctx context.Context, ch <-chan model.TradeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(ev)
		}
	}
}

// ServeHTTP upgrades the request and registers the client. The optional
// since query parameter limits replay to entries with a greater seq.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade error: %v", err)
		return
	}
	var since int64
	if s := r.URL.Query().Get("since"); s != "" {
		since, _ = strconv.ParseInt(s, 10, 64)
	}

	c := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	// Replay and register under one lock so no envelope falls between them.
	// A client may see an entry twice; seq identifies it.
	h.mu.Lock()
	c.queueReplay(since)
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.clientCount(n)
	log.Printf("[feed] client connected (%d total)", n)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.clientCount(n)
	log.Printf("[feed] client disconnected (%d total)", n)
}

func (h *Hub) clientCount(n int) {
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.removeClient(c)
	}
}
