package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/gorilla/websocket"
)

func TestHubStreamsAcceptedWrites(t *testing.T) {
	ta := setupTestApp(t)
	event := ta.createEvent(t, "open-conf", true)
	ta.createCanvas(t, event.ID())
	_, token := ta.createSession(t, "painter")

	wsURL := "ws" + strings.TrimPrefix(ta.server.URL, "http") + "/ws/events/open-conf/place"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	resp := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", token,
		setCellRequest{X: 2, Y: 1, Color: "#ff0000"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("write failed: %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read broadcast frame: %v", err)
	}

	var msg struct {
		Type string      `json:"type"`
		Data models.Cell `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if msg.Type != "cell" {
		t.Errorf("frame type = %q, want cell", msg.Type)
	}
	if msg.Data.X != 2 || msg.Data.Y != 1 || msg.Data.Color != "#ff0000" {
		t.Errorf("unexpected cell in frame: %+v", msg.Data)
	}
}

func TestHubScopesBroadcastsByEvent(t *testing.T) {
	ta := setupTestApp(t)
	first := ta.createEvent(t, "first-conf", true)
	second := ta.createEvent(t, "second-conf", true)
	ta.createCanvas(t, first.ID())
	ta.createCanvas(t, second.ID())
	_, token := ta.createSession(t, "painter")

	wsURL := "ws" + strings.TrimPrefix(ta.server.URL, "http") + "/ws/events/second-conf/place"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	resp := ta.do(t, http.MethodPost, "/api/events/first-conf/place/cells", token,
		setCellRequest{X: 0, Y: 0, Color: "#ff0000"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("write failed: %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("subscriber of another event should not receive the frame")
	}
}
