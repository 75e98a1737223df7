package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func streamServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	handler := NewHandler(hub, nil)

	e := echo.New()
	handler.RegisterRoutes(e.Group("/vision/watch"))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/vision/watch/events"
}

func TestStream_DeliversEvents(t *testing.T) {
	hub, url := streamServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Subscription happens inside the upgraded handler; wait for it.
	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.SubscriberCount() != 1 {
		t.Fatal("stream never subscribed to the hub")
	}

	hub.Broadcast(Event{
		Type:      EventChange,
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"delta": 0.42},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != EventChange {
		t.Errorf("unexpected event type %q", ev.Type)
	}
	if ev.Data["delta"] != 0.42 {
		t.Errorf("unexpected payload %v", ev.Data)
	}
}

func TestStream_UnsubscribesOnDisconnect(t *testing.T) {
	hub, url := streamServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.SubscriberCount() != 0 {
		t.Error("subscriber must be removed after disconnect")
	}
}
