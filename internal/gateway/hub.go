package gateway

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/pkg/gamedto"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Client is one websocket subscriber. Events are queued on out and written
// by a single writer goroutine so wsjson.Write is never called concurrently.
type Client struct {
	ID   string
	conn *websocket.Conn

	out      chan gamedto.Event
	done     chan struct{}
	stopOnce sync.Once
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		out:  make(chan gamedto.Event, sendBuffer),
		done: make(chan struct{}),
	}
}

// writeLoop drains the outbound queue. A write error closes the client; the
// read loop notices the closed connection and tears the session down.
func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.out:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := wsjson.Write(ctx, c.conn, ev)
			cancel()
			if err != nil {
				c.stop()
				return
			}
		}
	}
}

func (c *Client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusGoingAway, "bye")
		}
	})
}

// Hub tracks connected clients and implements room.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if c != nil {
		c.stop()
	}
}

// Send queues an event for one subscriber. Non-blocking: rooms call this
// while holding their own lock, so a slow client must never stall a game.
func (h *Hub) Send(subscriberID string, ev gamedto.Event) {
	h.mu.RLock()
	c := h.clients[subscriberID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.out <- ev:
	default:
		obslog.L().Warn("event_dropped",
			zap.String("subscriber", subscriberID),
			zap.String("type", ev.Type),
		)
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
