// Package realtime owns the websocket fan-out: a room-based client
// registry plus the publish helpers that push recomputed queue state to
// provider dashboards and customer views. All pushes are fire-and-forget;
// an empty room is not an error.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"backend-smartqueue/internal/config"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

/*
|--------------------------------------------------------------------------
| Client Registry
|--------------------------------------------------------------------------
*/

type Client struct {
	conn         *websocket.Conn
	writeMux     sync.Mutex
	closeChan    chan struct{}
	closed       bool
	lastPongTime time.Time
	id           string
	rooms        map[string]struct{}
}

var (
	clients        = make(map[*websocket.Conn]*Client)
	rooms          = make(map[string]map[*Client]struct{})
	mu             sync.RWMutex
	clientCounter  uint64 // atomic
	cleanupRunning bool
)

func ProviderRoom(providerID string) string { return "provider:" + providerID }
func UserRoom(userID string) string         { return "user:" + userID }

// envelope is the wire shape of every server push.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Register adds a connection to the registry and returns its client
// handle. Starts the dead-client sweeper with the first connection.
func Register(conn *websocket.Conn) *Client {
	id := atomic.AddUint64(&clientCounter, 1)

	client := &Client{
		conn:         conn,
		closeChan:    make(chan struct{}),
		lastPongTime: time.Now(),
		id:           fmt.Sprintf("client-%d", id),
		rooms:        make(map[string]struct{}),
	}

	mu.Lock()
	clients[conn] = client
	total := len(clients)
	startCleanup := !cleanupRunning
	if startCleanup {
		cleanupRunning = true
	}
	mu.Unlock()

	config.Logger().Debug("ws client registered",
		zap.String("client", client.id), zap.Int("total", total))

	if startCleanup {
		go periodicCleanup()
	}
	return client
}

// Unregister drops a connection and removes it from every room it joined.
func Unregister(conn *websocket.Conn) {
	mu.Lock()
	client, exists := clients[conn]
	if exists {
		client.writeMux.Lock()
		if !client.closed {
			client.closed = true
			close(client.closeChan)
		}
		client.writeMux.Unlock()
		for room := range client.rooms {
			removeFromRoomLocked(client, room)
		}
		delete(clients, conn)
	}
	total := len(clients)
	mu.Unlock()

	_ = conn.Close()
	if exists {
		config.Logger().Debug("ws client unregistered",
			zap.String("client", client.id), zap.Int("total", total))
	}
}

func removeFromRoomLocked(client *Client, room string) {
	if members, ok := rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(rooms, room)
		}
	}
}

// ID returns the registry handle for log correlation.
func (c *Client) ID() string { return c.id }

// Touch records a pong from the peer.
func (c *Client) Touch() {
	c.writeMux.Lock()
	c.lastPongTime = time.Now()
	c.writeMux.Unlock()
}

// Closed reports whether the client has been torn down.
func (c *Client) Closed() bool {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()
	return c.closed
}

// CloseChan fires when the client is torn down; the handler's ping loop
// selects on it.
func (c *Client) CloseChan() <-chan struct{} { return c.closeChan }

// Ping writes a ping control frame.
func (c *Client) Ping() error {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Join subscribes the client to a named channel. Membership is
// client-initiated; entitlement is checked by the ws handler before
// calling this.
func (c *Client) Join(room string) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := clients[c.conn]; !ok {
		return
	}
	c.rooms[room] = struct{}{}
	members, ok := rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		rooms[room] = members
	}
	members[c] = struct{}{}
}

// Send pushes one event to this client only (join acks, initial state).
func (c *Client) Send(event string, payload any) {
	msg, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		config.Logger().Warn("ws marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	writeToClient(c, msg)
}

/*
|--------------------------------------------------------------------------
| Broadcast
|--------------------------------------------------------------------------
*/

// Emit pushes one event to every member of a room. No subscribers is a
// no-op, never an error, and failed writes only tear down the one client.
func Emit(room, event string, payload any) {
	msg, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		config.Logger().Warn("ws marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	mu.RLock()
	members := make([]*Client, 0, len(rooms[room]))
	for client := range rooms[room] {
		members = append(members, client)
	}
	mu.RUnlock()

	if len(members) == 0 {
		return
	}

	// Bounded worker pool so one slow client cannot stall the rest.
	const maxWorkers = 20
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for _, client := range members {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Client) {
			defer wg.Done()
			defer func() { <-sem }()
			writeToClient(c, msg)
		}(client)
	}

	wg.Wait()
}

func writeToClient(c *Client, msg []byte) {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()

	if c.closed {
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		config.Logger().Warn("ws write failed",
			zap.String("client", c.id), zap.Error(err))
		c.closed = true
		select {
		case <-c.closeChan:
		default:
			close(c.closeChan)
		}

		go func(conn *websocket.Conn) {
			mu.Lock()
			if client, ok := clients[conn]; ok {
				for room := range client.rooms {
					removeFromRoomLocked(client, room)
				}
				delete(clients, conn)
			}
			mu.Unlock()
			conn.Close()
		}(c.conn)
	}
}

/*
|--------------------------------------------------------------------------
| Cleanup
|--------------------------------------------------------------------------
*/

// periodicCleanup drops connections that stopped answering pings. Stops
// itself once the registry is empty.
func periodicCleanup() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		mu.Lock()
		if len(clients) == 0 {
			cleanupRunning = false
			mu.Unlock()
			return
		}
		mu.Unlock()

		now := time.Now()
		var toRemove []*websocket.Conn

		mu.RLock()
		for conn, client := range clients {
			client.writeMux.Lock()
			stale := now.Sub(client.lastPongTime) > 90*time.Second
			client.writeMux.Unlock()
			if stale {
				toRemove = append(toRemove, conn)
			}
		}
		mu.RUnlock()

		for _, conn := range toRemove {
			config.Logger().Debug("ws client dead, removing")
			Unregister(conn)
		}
	}
}
