package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BioHazard786/roomdrop/internal/signaling"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound messages buffered per connection.
	sendQueueSize = 256
)

// Conn is a single websocket connection to a peer.
type Conn struct {
	id     string
	hub    *Hub
	ws     *websocket.Conn
	logger *slog.Logger

	// mu guards closed and sends on send, so Deliver never races Close.
	mu     sync.Mutex
	send   chan signaling.Message
	closed bool
}

// Serve registers ws with the hub, greets the peer with its connection id
// and starts the read and write pumps. It returns without blocking.
func (h *Hub) Serve(ws *websocket.Conn) (*Conn, error) {
	c := &Conn{
		id:   uuid.NewString(),
		hub:  h,
		ws:   ws,
		send: make(chan signaling.Message, sendQueueSize),
	}
	c.logger = h.logger.With("conn", c.id)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		ws.Close()
		return nil, ErrStopped
	}
	h.conns[c.id] = c
	h.mu.Unlock()

	c.Deliver(signaling.MustMessage(signaling.TypeWelcome, signaling.Welcome{PeerID: c.id}))

	go c.writePump()
	go c.readPump()

	c.logger.Info("connection registered", "remote", ws.RemoteAddr().String())
	return c, nil
}

// ID returns the server-assigned connection id.
func (c *Conn) ID() string {
	return c.id
}

// Deliver queues msg without blocking. Messages for a closed connection or
// a full queue are dropped.
func (c *Conn) Deliver(msg signaling.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("send queue full, dropping message", "type", msg.Type)
		return false
	}
}

// Close stops the write pump, which sends a close frame and tears down the
// socket. It is safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the websocket connection to the hub.
//
// There is at most one reader per connection; every read happens on this
// goroutine, so a connection's messages are dispatched in arrival order.
func (c *Conn) readPump() {
	defer func() {
		c.hub.OnDisconnect(c)
		c.Close()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}

		if kind != websocket.TextMessage {
			c.hub.reject(c, "", errors.New("binary frames are not accepted"))
			continue
		}

		var msg signaling.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.reject(c, "", signaling.ErrMalformed)
			continue
		}

		c.hub.Dispatch(c, msg)
	}
}

// writePump pumps messages from the send queue to the websocket connection.
//
// There is at most one writer per connection; every write happens on this
// goroutine.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.ws.WriteJSON(message); err != nil {
				c.logger.Warn("write failed", "type", message.Type, "error", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
