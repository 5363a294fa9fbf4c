// Package streaming pushes newly created analysis records to WebSocket
// subscribers so dashboards see picks without polling.
package streaming

import (
	"context"
	"log"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/matchpick/matchpick/pkg/store"
)

// EventType tags a hub event on the wire.
type EventType string

const (
	EventPick      EventType = "pick"
	EventHeartbeat EventType = "heartbeat"
)

// Event is the wire envelope pushed to subscribers.
type Event struct {
	Type   EventType     `json:"type"`
	Record *store.Record `json:"record,omitempty"`
	Time   time.Time     `json:"time"`
}

// Config holds hub tuning knobs.
type Config struct {
	// HeartbeatInterval spaces keepalive events. Defaults to 30s.
	HeartbeatInterval time.Duration

	// ClientBuffer is the per-client send queue. A client that falls this
	// far behind is dropped. Defaults to 16.
	ClientBuffer int

	// WriteTimeout bounds a single client write. Defaults to 10s.
	WriteTimeout time.Duration
}

// Hub fans analysis events out to connected WebSocket clients.
type Hub struct {
	config Config

	register   chan *client
	unregister chan *client
	broadcast  chan Event

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(cfg Config) *Hub {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Hub{
		config:     cfg,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run owns the client set until ctx is cancelled. All registration and
// broadcast traffic funnels through this loop, so no locking is needed.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	heartbeat := time.NewTicker(h.config.HeartbeatInterval)
	defer heartbeat.Stop()

	drop := func(c *client) {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
	}

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				drop(c)
			}
			return
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			drop(c)
		case ev := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- ev:
				default:
					// Slow consumer; shed it rather than blocking the hub.
					drop(c)
				}
			}
		case t := <-heartbeat.C:
			for c := range clients {
				select {
				case c.send <- Event{Type: EventHeartbeat, Time: t.UTC()}:
				default:
					drop(c)
				}
			}
		}
	}
}

// BroadcastPick pushes a newly created record to all subscribers. It is safe
// to call from any goroutine and never blocks the caller.
func (h *Hub) BroadcastPick(rec *store.Record) {
	select {
	case h.broadcast <- Event{Type: EventPick, Record: rec, Time: time.Now().UTC()}:
	default:
		log.Printf("[Streaming] broadcast queue full, dropping pick for match %d", rec.MatchID)
	}
}

// ServeWS upgrades an HTTP request and streams events until the client goes
// away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Streaming] upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, h.config.ClientBuffer)}
	h.register <- c

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards inbound frames; the stream is one-way. It exists to
// notice the close handshake and surface disconnects to the hub.
func (h *Hub) readLoop(c *client) {
	defer func() { h.unregister <- c }()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
