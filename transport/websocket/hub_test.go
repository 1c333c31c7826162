package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
)

func newTestClient(hub *Hub, sessionID string, binary bool) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
		binary:    binary,
	}
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case data := <-client.send:
		return data
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No message received within timeout")
		return nil
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected broadcast buffer %d, got %d", broadcastBuffer, cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub registration channels are nil")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID, false)
	client2 := newTestClient(hub, sessionID, false)
	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.sessions[sessionID]) != 2 {
		t.Fatalf("Expected 2 clients in session, got %d", len(hub.sessions[sessionID]))
	}

	hub.unregisterClient(client1)
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
	if _, ok := <-client1.send; ok {
		t.Error("Expected client1 send channel to be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.sessions[sessionID]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// Unregistering twice is a no-op
	hub.unregisterClient(client2)
}

func TestHubBroadcastMessageFormats(t *testing.T) {
	hub := NewHub()
	textClient := newTestClient(hub, "fmt", false)
	binaryClient := newTestClient(hub, "fmt", true)
	otherClient := newTestClient(hub, "other", false)
	hub.registerClient(textClient)
	hub.registerClient(binaryClient)
	hub.registerClient(otherClient)

	hub.broadcastMessage(&Message{SessionID: "fmt", Event: EventAnnounce, Text: "a crashed."})

	var fromJSON Message
	if err := json.Unmarshal(receive(t, textClient), &fromJSON); err != nil {
		t.Fatalf("Failed to unmarshal JSON message: %v", err)
	}
	if fromJSON.Event != EventAnnounce || fromJSON.Text != "a crashed." {
		t.Errorf("Unexpected JSON message: %+v", fromJSON)
	}

	var fromMsgpack Message
	if err := msgpack.Unmarshal(receive(t, binaryClient), &fromMsgpack); err != nil {
		t.Fatalf("Failed to unmarshal msgpack message: %v", err)
	}
	if fromMsgpack.SessionID != "fmt" || fromMsgpack.Text != "a crashed." {
		t.Errorf("Unexpected msgpack message: %+v", fromMsgpack)
	}

	select {
	case <-otherClient.send:
		t.Error("Client of another session should not receive the message")
	default:
	}
}

func TestHubBroadcastDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventAnnounce})

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("Slow client should have been unregistered")
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastText("full", "tick")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected a full queue of %d, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestSessionUI(t *testing.T) {
	hub := NewHub()
	track, err := engine.ParseTrack([]string{"#^..-#", "#^..-#"})
	if err != nil {
		t.Fatalf("ParseTrack failed: %v", err)
	}
	cars := []*engine.Car{engine.NewCar('a', nil), engine.NewCar('b', nil), engine.NewCar('c', nil)}
	track.PlaceAtStart(cars)

	ui := hub.SessionUI("race")
	if !ui.Automatic() {
		t.Error("Session UI should be automatic")
	}
	if err := ui.WaitForAdvance(); err != nil {
		t.Errorf("WaitForAdvance returned %v", err)
	}

	ui.Render(engine.RaceView{Track: track, Cars: cars})
	ui.Announce("a won.")

	frame := <-hub.broadcast
	if frame.Event != EventFrame || frame.SessionID != "race" {
		t.Fatalf("Unexpected frame message: %+v", frame)
	}
	if len(frame.Grid) != 2 || frame.Grid[0] != "#a..-#" || frame.Grid[1] != "#b..-#" {
		t.Errorf("Unexpected grid: %q", frame.Grid)
	}
	if len(frame.Cars) != 2 {
		t.Errorf("Expected only placed cars, got %+v", frame.Cars)
	}
	if frame.Cars[0].Name != "a" || frame.Cars[0].X != 1 || frame.Cars[0].Y != 0 || !frame.Cars[0].Alive {
		t.Errorf("Unexpected car frame: %+v", frame.Cars[0])
	}

	announce := <-hub.broadcast
	if announce.Event != EventAnnounce || announce.Text != "a won." {
		t.Errorf("Unexpected announcement: %+v", announce)
	}
}

func TestBroadcastState(t *testing.T) {
	hub := NewHub()
	hub.BroadcastState("race", nil)
	if len(hub.broadcast) != 0 {
		t.Fatal("Nil state should not be broadcast")
	}

	hub.BroadcastState("race", &engine.RaceState{
		Status: engine.StatusFinished,
		Winner: "a",
		Round:  3,
		Turn:   5,
		Frame:  []string{"#..a#"},
		Cars: []engine.CarState{
			{Name: "a", Position: engine.Vector2{X: 3, Y: 0}, Alive: true, Placed: true},
			{Name: "z"},
		},
	})

	message := <-hub.broadcast
	if message.Event != EventState || message.Status != string(engine.StatusFinished) || message.Winner != "a" {
		t.Errorf("Unexpected state message: %+v", message)
	}
	if message.Round != 3 || message.Turn != 5 || len(message.Cars) != 1 {
		t.Errorf("Unexpected counters or cars: %+v", message)
	}
}

func startHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketTextFrames(t *testing.T) {
	hub := NewHub()
	server := startHubServer(t, hub)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=text-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	// Give time for registration
	time.Sleep(50 * time.Millisecond)
	hub.BroadcastText("text-test", "b crashed.")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("Expected a text frame, got %d", kind)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Text != "b crashed." {
		t.Errorf("Unexpected message: %+v", message)
	}
}

func TestWebSocketMsgpackFrames(t *testing.T) {
	hub := NewHub()
	server := startHubServer(t, hub)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=bin-test&format=" + FormatMsgpack
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	hub.BroadcastState("bin-test", &engine.RaceState{Status: engine.StatusRunning, Round: 2})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("Expected a binary frame, got %d", kind)
	}

	var message Message
	if err := msgpack.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal msgpack: %v", err)
	}
	if message.Event != EventState || message.Round != 2 {
		t.Errorf("Unexpected message: %+v", message)
	}
}
