package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wricardo/mcp-training/vectorrace/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// Event names carried by Message.Event
const (
	EventFrame    = "frame"
	EventAnnounce = "announce"
	EventState    = "state_update"
)

// FormatMsgpack selects binary msgpack frames in the ?format= query parameter
const FormatMsgpack = "msgpack"

var log = logging.For("ws")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CarFrame is the wire form of a car inside a frame
type CarFrame struct {
	Name          string `json:"name" msgpack:"name"`
	X             int    `json:"x" msgpack:"x"`
	Y             int    `json:"y" msgpack:"y"`
	AccelerationX int    `json:"ax" msgpack:"ax"`
	AccelerationY int    `json:"ay" msgpack:"ay"`
	Alive         bool   `json:"alive" msgpack:"alive"`
}

// Message represents a WebSocket message
type Message struct {
	SessionID string     `json:"session_id" msgpack:"session_id"`
	Event     string     `json:"event" msgpack:"event"`
	Grid      []string   `json:"grid,omitempty" msgpack:"grid,omitempty"`
	Cars      []CarFrame `json:"cars,omitempty" msgpack:"cars,omitempty"`
	Round     int        `json:"round,omitempty" msgpack:"round,omitempty"`
	Turn      int        `json:"turn,omitempty" msgpack:"turn,omitempty"`
	Status    string     `json:"status,omitempty" msgpack:"status,omitempty"`
	Winner    string     `json:"winner,omitempty" msgpack:"winner,omitempty"`
	Text      string     `json:"text,omitempty" msgpack:"text,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	binary    bool
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	// Outbound messages for session clients
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a session.
// Session IDs are case-insensitive. Clients asking for ?format=msgpack
// receive binary frames.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warningf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: strings.ToLower(sessionID),
		binary:    r.URL.Query().Get("format") == FormatMsgpack,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// Broadcast queues a message for every client of message.SessionID. It never
// blocks: when the queue is full the message is dropped.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Warningf("broadcast queue full, dropping %s for session %s", message.Event, message.SessionID)
	}
}

// BroadcastText sends an announcement to all clients in a session
func (h *Hub) BroadcastText(sessionID, text string) {
	h.Broadcast(&Message{
		SessionID: sessionID,
		Event:     EventAnnounce,
		Text:      text,
	})
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.Debugf("client registered for session %s (total clients: %d)",
		client.sessionID, len(h.sessions[client.sessionID]))
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			log.Debugf("client unregistered from session %s (remaining clients: %d)",
				client.sessionID, len(clients))
		}
	}
}

// broadcastMessage encodes a message once per wire format and sends it to
// all clients in its session
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[strings.ToLower(message.SessionID)]
	if !ok {
		return
	}

	var text, binary []byte
	for client := range clients {
		var data []byte
		var err error
		if client.binary {
			if binary == nil {
				binary, err = msgpack.Marshal(message)
			}
			data = binary
		} else {
			if text == nil {
				text, err = json.Marshal(message)
			}
			data = text
		}
		if err != nil {
			log.Errorf("failed to encode %s message: %v", message.Event, err)
			return
		}

		select {
		case client.send <- data:
		default:
			h.unregisterClient(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warningf("websocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if c.binary {
				if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
					return
				}
				continue
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
