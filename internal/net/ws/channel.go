package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// envelope is the frame every server event travels in.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// channel adapts a websocket connection to the registry's Channel
// interface. Gorilla connections permit a single writer, so every send
// funnels through the mutex.
type channel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newChannel(conn *websocket.Conn) *channel {
	return &channel{conn: conn}
}

func (c *channel) Send(event string, payload any) error {
	data, err := json.Marshal(envelope{Type: event, Data: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *channel) Close() {
	c.conn.Close()
}
