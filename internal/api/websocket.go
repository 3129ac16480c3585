package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

const wsQueueSize = 256

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload names the channels to add or remove. Devices, when
// set, narrows state events to those box ids; an empty list means every
// box.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
	Devices  []string `json:"devices,omitempty"`
}

// Origin checks belong to the CORS middleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsClient is one websocket connection. The read and write pumps stop when
// done is closed.
type wsClient struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	channels map[string]struct{}
	devices  map[string]struct{}
}

func newWSClient(h *Hub, conn *websocket.Conn) *wsClient {
	return &wsClient{
		hub:      h,
		conn:     conn,
		queue:    make(chan []byte, wsQueueSize),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
		devices:  make(map[string]struct{}),
	}
}

// handleWebSocket upgrades the request. The comma-separated channels and
// devices query parameters subscribe before the first frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(s.hub, conn)
	q := r.URL.Query()
	c.apply(WSSubscribePayload{
		Channels: splitList(q.Get("channels")),
		Devices:  splitList(q.Get("devices")),
	}, true)

	s.hub.register(c)
	go c.writeLoop()
	go c.readLoop()
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue drops data when the client is gone or its queue is full.
func (c *wsClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.queue <- data:
	default:
	}
}

func (c *wsClient) wants(channel, deviceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.channels[channel]; !ok {
		return false
	}
	if deviceID == "" || len(c.devices) == 0 {
		return true
	}
	_, ok := c.devices[deviceID]
	return ok
}

// apply adds or removes the channels and devices of p.
func (c *wsClient) apply(p WSSubscribePayload, add bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range p.Channels {
		if add {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	for _, id := range p.Devices {
		if add {
			c.devices[id] = struct{}{}
		} else {
			delete(c.devices, id)
		}
	}
}

func (c *wsClient) timeouts() (ping, pong time.Duration) {
	return time.Duration(c.hub.cfg.PingInterval) * time.Second,
		time.Duration(c.hub.cfg.PongTimeout) * time.Second
}

func (c *wsClient) readLoop() {
	defer c.hub.unregister(c)

	ping, pong := c.timeouts()
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = extend()
		c.dispatch(frame)
	}
}

func (c *wsClient) writeLoop() {
	ping, pong := c.timeouts()
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	write := func(kind int, data []byte) bool {
		_ = c.conn.SetWriteDeadline(time.Now().Add(pong))
		return c.conn.WriteMessage(kind, data) == nil
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.queue:
			if !write(websocket.TextMessage, data) {
				c.close()
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				c.close()
				return
			}
		}
	}
}

func (c *wsClient) dispatch(frame []byte) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.reply("", WSTypeError, errorBody("invalid JSON message"))
		return
	}

	switch msg.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.subscribe(msg)
	case WSTypePing:
		c.reply(msg.ID, WSTypePong, nil)
	default:
		c.reply(msg.ID, WSTypeError, errorBody("unknown message type: "+msg.Type))
	}
}

func (c *wsClient) subscribe(msg WSMessage) {
	// Payload arrives as a generic map; round-trip it into the typed form.
	raw, err := json.Marshal(msg.Payload)
	var p WSSubscribePayload
	if err == nil {
		err = json.Unmarshal(raw, &p)
	}
	if err != nil {
		c.reply(msg.ID, WSTypeError, errorBody("invalid "+msg.Type+" payload"))
		return
	}

	add := msg.Type == WSTypeSubscribe
	c.apply(p, add)

	key := "unsubscribed"
	if add {
		key = "subscribed"
	}
	body := map[string]any{key: p.Channels}
	if len(p.Devices) > 0 {
		body["devices"] = p.Devices
	}
	c.reply(msg.ID, WSTypeResponse, body)
}

func (c *wsClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err == nil {
		c.enqueue(data)
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"message": message}
}
