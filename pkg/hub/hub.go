package hub

import (
	"errors"
	"sync"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/metrics"
)

// textMessage mirrors websocket.TextMessage; the hub only ever sends text frames.
const textMessage = 1

// ErrClosed is returned when registering on a hub that has shut down
var ErrClosed = errors.New("hub is closed")

// Conn is the subset of websocket connection capabilities the hub uses
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live real-time session. Outbound messages go through a
// bounded queue drained by WritePump; a slow or dead consumer never blocks
// the relay, its newest messages are dropped instead.
type Client struct {
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Send queues one message for delivery. Delivery is best-effort: if the
// client's queue is full the message is dropped and counted.
func (c *Client) Send(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		metrics.HubMessagesDroppedTotal.Inc()
	}
}

// WritePump drains the outbound queue onto the connection. It runs in its
// own goroutine per client and exits when the connection fails or the client
// is unregistered.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for {
		select {
		case payload := <-c.send:
			if err := c.conn.WriteMessage(textMessage, payload); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks the currently connected clients and fans messages out to them.
// Safe for concurrent register, unregister and broadcast.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	sendBuffer int
	closed     bool
	logger     *logger.Logger
}

// New creates a Hub whose clients buffer up to sendBuffer outbound messages
func New(sendBuffer int, l *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		sendBuffer: sendBuffer,
		logger:     l,
	}
}

// Register adds a connection and returns its client handle
func (h *Hub) Register(conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	c := &Client{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.clients[c] = struct{}{}
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	return c, nil
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))
	c.stop()
}

// Broadcast sends the payload to every connected client
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		c.Send(payload)
	}
}

// BroadcastExcept sends the payload to every connected client other than the sender
func (h *Hub) BroadcastExcept(payload []byte, sender *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c == sender {
			continue
		}
		c.Send(payload)
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops accepting registrations and disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.stop()
	}
	metrics.HubConnectedClients.Set(0)
	h.logger.Info("hub closed")
}
