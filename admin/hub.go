// Package admin exposes a read-only WebSocket feed of executions as they
// are emitted, for a dashboard or admin UI to render in real time.
package admin

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teranos/cadence/execution"
	"github.com/teranos/cadence/logger"
)

// WebSocket timeout constants for the ping/pong keepalive cycle.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub broadcasts every execution emitted on a queue to connected admin
// WebSocket clients. It subscribes to the queue once and fans out to an
// arbitrary number of viewers.
type Hub struct {
	queue *execution.Queue
	log   *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*hubClient]struct{}

	feed chan execution.Execution
	done chan struct{}
}

// NewHub builds a Hub over queue. Call Run to begin fanning out executions.
func NewHub(queue *execution.Queue, log *zap.SugaredLogger) *Hub {
	return &Hub{
		queue:   queue,
		log:     log,
		clients: make(map[*hubClient]struct{}),
		done:    make(chan struct{}),
	}
}

// Run subscribes to the queue and fans out executions until Close is
// called. Intended to run in its own goroutine.
func (h *Hub) Run() {
	h.feed = h.queue.Subscribe(sendBufferSize)
	for {
		select {
		case e, ok := <-h.feed:
			if !ok {
				return
			}
			h.broadcast(e)
		case <-h.done:
			h.queue.Unsubscribe(h.feed)
			return
		}
	}
}

// Close stops the hub's fan-out loop and disconnects every client.
func (h *Hub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
	h.clients = make(map[*hubClient]struct{})
}

func (h *Hub) broadcast(e execution.Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			if h.log != nil {
				logger.AddSchedulerSymbol(h.log).Warnw("admin client send buffer full, dropping execution",
					"execution_id", e.ID)
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// it as an admin viewer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.log != nil {
			logger.AddSchedulerSymbol(h.log).Warnw("admin websocket upgrade failed", "error", err)
		}
		return
	}

	c := &hubClient{hub: h, conn: conn, send: make(chan execution.Execution, sendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan execution.Execution
}

// readPump only exists to detect the client going away; this feed is
// one-directional, so any inbound message is discarded.
func (c *hubClient) readPump() {
	defer c.unregister()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *hubClient) unregister() {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.clients[c]; ok {
		delete(c.hub.clients, c)
		close(c.send)
	}
}
