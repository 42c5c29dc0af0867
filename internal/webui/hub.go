package webui

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kayz/biometrics/internal/dashboard"
	"github.com/kayz/biometrics/internal/logger"
)

const (
	sendQueueSize = 64
	pingInterval  = 15 * time.Second
	readTimeout   = 60 * time.Second
	writeTimeout  = 10 * time.Second
)

// client is one connected dashboard.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans push messages out to every connected dashboard. Each client has
// its own bounded queue; a client that falls behind is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	onCount func(n int)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Serve registers conn and blocks until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn, greeting ...dashboard.Envelope) {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	for _, env := range greeting {
		if data, err := json.Marshal(env); err == nil {
			c.send <- data
		}
	}
	h.add(c)
	logger.Info("[Dashboard] client %s connected from %s", c.id, conn.RemoteAddr())

	go h.writeLoop(c)
	h.readLoop(c)

	h.remove(c)
	logger.Info("[Dashboard] client %s disconnected", c.id)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		c.close()
		if h.onCount != nil {
			h.onCount(n)
		}
	}
}

// readLoop only services control frames; dashboards never send data.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("[Dashboard] client %s read error: %v", c.id, err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("[Dashboard] client %s write error: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast queues env for every client and returns how many received it.
func (h *Hub) Broadcast(env dashboard.Envelope) int {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Error("[Dashboard] encode %s: %v", env.Type, err)
		return 0
	}

	var slow []*client
	sent := 0
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("[Dashboard] dropping slow client %s", c.id)
		h.remove(c)
	}
	return sent
}

// QueueSize is the number of messages waiting across all clients.
func (h *Hub) QueueSize() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		n += len(c.send)
	}
	return n
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}
