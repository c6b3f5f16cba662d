package diag

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialBroadcaster(t *testing.T, b *Broadcaster) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

// waitForClients polls until the broadcaster has registered n clients.
func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("client count stuck at %d, want %d", b.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// TestSnapshotOnAttach verifies a fresh client receives the current
// state before any deltas.
func TestSnapshotOnAttach(t *testing.T) {
	b := NewBroadcaster(nil)
	b.PublishStateChange(0x1001, "READY", 42)

	conn := dialBroadcaster(t, b)
	msg := readMessage(t, conn)
	if msg.Type != MsgSnapshot {
		t.Fatalf("first message type = %q, want %q", msg.Type, MsgSnapshot)
	}
	payload := msg.Payload.(map[string]any)
	if payload["state"] != "READY" {
		t.Errorf("snapshot state = %v, want READY", payload["state"])
	}
}

// TestStateChangeDelta verifies transitions reach an attached client in
// order.
func TestStateChangeDelta(t *testing.T) {
	b := NewBroadcaster(nil)
	conn := dialBroadcaster(t, b)
	readMessage(t, conn) // snapshot
	waitForClients(t, b, 1)

	b.PublishStateChange(0x1001, "SYNCHRONIZED", 1)
	b.PublishStateChange(0x1001, "VISIBLE", 2)

	for _, want := range []string{"SYNCHRONIZED", "VISIBLE"} {
		msg := readMessage(t, conn)
		if msg.Type != MsgStateChange {
			t.Fatalf("type = %q, want %q", msg.Type, MsgStateChange)
		}
		payload := msg.Payload.(map[string]any)
		if payload["state"] != want {
			t.Errorf("state = %v, want %v", payload["state"], want)
		}
	}
}

// TestFrameCounter verifies frame messages carry a monotonically
// increasing counter.
func TestFrameCounter(t *testing.T) {
	b := NewBroadcaster(nil)
	conn := dialBroadcaster(t, b)
	readMessage(t, conn)
	waitForClients(t, b, 1)

	b.PublishFrame(0x1001, 100, 1)
	b.PublishFrame(0x1001, 200, 1)

	var last float64
	for i := 0; i < 2; i++ {
		msg := readMessage(t, conn)
		if msg.Type != MsgFrame {
			t.Fatalf("type = %q, want %q", msg.Type, MsgFrame)
		}
		n := msg.Payload.(map[string]any)["frame"].(float64)
		if n <= last {
			t.Fatalf("frame counter went %v after %v", n, last)
		}
		last = n
	}
}

// TestPublishDuringDisconnect verifies publishing stays safe while
// clients detach concurrently: channel close is owned by the hub and
// serialized against the send loop, so no send can hit a closed channel.
func TestPublishDuringDisconnect(t *testing.T) {
	b := NewBroadcaster(nil)

	const clients = 200
	attached := make([]*client, clients)
	for i := range attached {
		c := &client{send: make(chan []byte, 1)}
		attached[i] = c
		b.mu.Lock()
		b.clients[c] = true
		b.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range attached {
			b.removeClient(c)
		}
	}()

	for i := 0; i < 500; i++ {
		b.PublishFrame(0x1001, int64(i), 1)
		b.PublishStateChange(0x1001, "VISIBLE", int64(i))
	}
	<-done

	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d after all removals, want 0", n)
	}
	// A second removal of an already-detached client is a no-op.
	b.removeClient(attached[0])
}

// TestPublishWithoutClients verifies publishing with nobody attached is
// a no-op rather than a block or panic.
func TestPublishWithoutClients(t *testing.T) {
	b := NewBroadcaster(nil)
	b.PublishStateChange(1, "READY", 0)
	b.PublishFrame(1, 0, 0)
	if b.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", b.ClientCount())
	}
}
