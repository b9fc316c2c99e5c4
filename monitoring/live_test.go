package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsPredictions(t *testing.T) {
	hub := NewHub(nil)
	go hub.Start()
	defer hub.Stop()

	wsServer := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer wsServer.Close()

	url := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// Give the register message time to land before broadcasting.
	time.Sleep(100 * time.Millisecond)
	hub.PublishPrediction(map[string]any{"player1": "Novak Djokovic", "p1_win_prob": 0.7})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("Invalid event JSON: %v", err)
	}
	if event.Type != EventPrediction {
		t.Errorf("Expected %q event, got %q", EventPrediction, event.Type)
	}
	if event.ID == "" {
		t.Error("Expected an event ID")
	}

	var data map[string]any
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fatalf("Invalid event data: %v", err)
	}
	if data["player1"] != "Novak Djokovic" {
		t.Errorf("Unexpected payload: %v", data)
	}
}

func TestPublishPredictionDropsUnmarshalable(t *testing.T) {
	hub := NewHub(nil)
	// Channels cannot be marshaled; the event is dropped without panicking.
	hub.PublishPrediction(make(chan int))
	select {
	case <-hub.broadcast:
		t.Error("Expected no event for an unmarshalable payload")
	default:
	}
}
