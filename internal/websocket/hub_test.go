package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, familyID int64) *Client {
	return &Client{
		hub:      hub,
		send:     make(chan []byte, sendBufferSize),
		familyID: familyID,
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 0)
	c2 := mockClient(hub, 0)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 0)
	c2 := mockClient(hub, 0)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage(EntityEntry, "updated", 42, map[string]any{"member_id": float64(3)}))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "entry_updated" {
				t.Errorf("expected type entry_updated, got %s", got.Type)
			}
			if got.ID != 42 {
				t.Errorf("expected id 42, got %d", got.ID)
			}
			if got.Extra["member_id"] != float64(3) {
				t.Errorf("expected member_id 3, got %v", got.Extra["member_id"])
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestBroadcastFamilyScope(t *testing.T) {
	hub := NewHub(slog.Default())

	all := mockClient(hub, 0)
	rahman := mockClient(hub, 1)
	ahmed := mockClient(hub, 2)
	for _, c := range []*Client{all, rahman, ahmed} {
		hub.Register(c)
	}

	hub.Broadcast(NewMessage(EntityMember, "created", 9, nil).ForFamily(1))

	if len(all.send) != 1 {
		t.Errorf("unscoped client got %d messages, want 1", len(all.send))
	}
	if len(rahman.send) != 1 {
		t.Errorf("family 1 client got %d messages, want 1", len(rahman.send))
	}
	if len(ahmed.send) != 0 {
		t.Errorf("family 2 client got %d messages, want 0", len(ahmed.send))
	}

	hub.Broadcast(NewMessage(EntityEntry, "materialized", 0, nil))
	if len(ahmed.send) != 1 {
		t.Errorf("unscoped message should reach every client, family 2 has %d", len(ahmed.send))
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 0)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("test", "fill", int64(i), nil))
	}
	// must drop, not block
	hub.Broadcast(NewMessage("test", "dropped", 999, nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, got)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(EntityCustomItem, "deleted", 5, nil)
	if msg.Type != "custom_item_deleted" {
		t.Errorf("expected type custom_item_deleted, got %s", msg.Type)
	}
	if msg.Entity != EntityCustomItem || msg.Action != "deleted" || msg.ID != 5 {
		t.Errorf("unexpected message %+v", msg)
	}
	if scoped := msg.ForFamily(3); scoped.FamilyID != 3 || msg.FamilyID != 0 {
		t.Errorf("ForFamily should copy, got %d and %d", scoped.FamilyID, msg.FamilyID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := mockClient(hub, int64(i%3))
			hub.Register(c)
			hub.Broadcast(NewMessage("test", "concurrent", 0, nil).ForFamily(int64(i % 2)))
			hub.Unregister(c)
		}(i)
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(HandleWebSocket(hub, slog.Default(), []string{"*"}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?family_id=4"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(NewMessage(EntityEntry, "updated", 1, nil).ForFamily(5))
	hub.Broadcast(NewMessage(EntityEntry, "updated", 2, nil).ForFamily(4))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 2 || got.FamilyID != 4 {
		t.Errorf("got %+v, want entry 2 for family 4", got)
	}
}

func TestHandleWebSocketRejectsBadFamily(t *testing.T) {
	hub := NewHub(slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ws?family_id=abc", nil)

	HandleWebSocket(hub, slog.Default(), nil)(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
