// Package diag streams runtime observations to inspector clients over
// websockets. It observes session transitions and frame submissions,
// never influencing them; a runtime with no broadcaster attached pays
// nothing.
package diag

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans runtime observations out to attached clients. Slow
// clients are disconnected rather than allowed to stall the runtime.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool

	stateMu    sync.Mutex
	session    uint64
	state      string
	frameCount uint64

	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewBroadcaster creates a Broadcaster. The logger may be nil.
func NewBroadcaster(log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{
		clients: make(map[*client]bool),
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades an inspector connection and attaches it. The new
// client receives a snapshot of the current session state first, then
// live deltas.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("diagnostics upgrade failed", "error", err)
		return
	}
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	b.stateMu.Lock()
	snapshot := WSMessage{
		Type: MsgSnapshot,
		Payload: SnapshotPayload{
			Session:    b.session,
			State:      b.state,
			FrameCount: b.frameCount,
		},
	}
	b.stateMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		b.log.Warn("diagnostics marshal failed", "error", err)
	} else {
		select {
		case c.send <- data:
		default:
		}
	}

	// Drain reads so close frames are processed; inspectors never send.
	go func() {
		defer b.removeClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// PublishStateChange streams one session lifecycle transition.
func (b *Broadcaster) PublishStateChange(session uint64, state string, t int64) {
	b.stateMu.Lock()
	b.session = session
	b.state = state
	b.stateMu.Unlock()

	b.broadcast(WSMessage{
		Type: MsgStateChange,
		Payload: StateChangePayload{
			Session: session,
			State:   state,
			Time:    t,
		},
	})
}

// PublishFrame streams one submitted frame.
func (b *Broadcaster) PublishFrame(session uint64, displayTime int64, layers int) {
	b.stateMu.Lock()
	b.frameCount++
	n := b.frameCount
	b.stateMu.Unlock()

	b.broadcast(WSMessage{
		Type: MsgFrame,
		Payload: FramePayload{
			Session:     session,
			DisplayTime: displayTime,
			Layers:      layers,
			Frame:       n,
		},
	})
}

// broadcast fans data out to every attached client. Sends happen under
// the read lock so they cannot interleave with removeClient closing a
// channel; slow clients are collected and detached after the lock drops.
func (b *Broadcaster) broadcast(msg WSMessage) {
	b.mu.RLock()
	attached := len(b.clients)
	b.mu.RUnlock()
	if attached == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Warn("diagnostics marshal failed", "error", err)
		return
	}

	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.log.Warn("diagnostics client too slow, disconnecting")
		b.removeClient(c)
	}
}

// ClientCount reports the number of attached inspector clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
