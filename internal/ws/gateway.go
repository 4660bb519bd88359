package ws

import (
	"errors"
	"log"
	"sync"

	"github.com/MayAshke/JaMoveo-server/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrTooManyConnections = errors.New("too many connections")

type client struct {
	id   string
	conn *websocket.Conn
	g    *Gateway
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.g.remove(c)
			return
		}
	}
}

// trySend enqueues without blocking. The caller must hold g.mu (read),
// which excludes the close in remove, so the send can never hit a
// closed channel.
func (c *client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Gateway owns every live connection and delivers outbound messages.
// Delivery is enqueue-only: each client drains its own buffered channel
// in a write pump, so one dead socket can never stall a broadcast. A
// client whose buffer fills is dropped.
type Gateway struct {
	mu       sync.RWMutex
	clients  map[string]*client
	tracker  *session.Tracker
	registry *session.Registry

	sendBuffer int
	maxConns   int // 0 = unlimited
}

func NewGateway(registry *session.Registry, tracker *session.Tracker, sendBuffer, maxConns int) *Gateway {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Gateway{
		clients:    make(map[string]*client),
		tracker:    tracker,
		registry:   registry,
		sendBuffer: sendBuffer,
		maxConns:   maxConns,
	}
}

// Add registers conn under a fresh connection id and starts its write
// pump. If a song is currently selected anywhere, it is pushed to the
// new connection immediately so late joiners see the live state without
// asking.
func (g *Gateway) Add(conn *websocket.Conn) (string, error) {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		g:    g,
		send: make(chan []byte, g.sendBuffer),
	}

	g.mu.Lock()
	if g.maxConns > 0 && len(g.clients) >= g.maxConns {
		g.mu.Unlock()
		return "", ErrTooManyConnections
	}
	g.clients[c.id] = c
	g.mu.Unlock()

	go c.writePump()

	if cur := g.registry.Current(); cur != nil {
		g.Unicast(c.id, currentSongMsg(cur))
	}
	return c.id, nil
}

// Remove drops the connection, leaving every session it joined.
func (g *Gateway) Remove(connID string) {
	g.mu.RLock()
	c := g.clients[connID]
	g.mu.RUnlock()
	if c != nil {
		g.remove(c)
	}
}

func (g *Gateway) remove(c *client) {
	g.mu.Lock()
	if _, ok := g.clients[c.id]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.clients, c.id)
	close(c.send)
	g.mu.Unlock()

	g.tracker.LeaveAll(c.id)
}

// Unicast enqueues msg for one connection. Unknown ids are a no-op.
func (g *Gateway) Unicast(connID string, msg Message) {
	data := msg.encode()

	g.mu.RLock()
	c := g.clients[connID]
	sent := c == nil || c.trySend(data)
	g.mu.RUnlock()

	if !sent {
		g.dropSlow(c)
	}
}

// ToSession enqueues msg for every connection currently joined to
// sessionID. Membership is read at call time; connections that join
// afterwards do not receive the message.
func (g *Gateway) ToSession(sessionID string, msg Message) {
	data := msg.encode()
	members := g.tracker.MembersOf(sessionID)

	g.mu.RLock()
	var slow []*client
	for _, connID := range members {
		c := g.clients[connID]
		if c != nil && !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range slow {
		g.dropSlow(c)
	}
}

// Broadcast enqueues msg for every connection, regardless of session
// membership.
func (g *Gateway) Broadcast(msg Message) {
	data := msg.encode()

	g.mu.RLock()
	var slow []*client
	for _, c := range g.clients {
		if !c.trySend(data) {
			slow = append(slow, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range slow {
		g.dropSlow(c)
	}
}

func (g *Gateway) dropSlow(c *client) {
	log.Printf("conn %s too slow, disconnecting", c.id)
	g.remove(c)
}

// Count reports the number of live connections.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}
