package client

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection with a write lock, since
// gorilla/websocket allows at most one concurrent writer.
type Client struct {
	Socket *websocket.Conn
	mu     *sync.Mutex
}

func (c *Client) Send(mtype int, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Socket.WriteMessage(mtype, msg)
}

func (c *Client) SendJSON(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Socket.WriteJSON(msg)
}

func New(conn *websocket.Conn) *Client {
	return &Client{
		Socket: conn,
		mu:     &sync.Mutex{},
	}
}

const (
	// MsgLatest asks the server to resend the most recent frame,
	// e.g. after the viewer re-lays-out its plots
	MsgLatest = "latest"
)

// Message is what a viewer may send over the socket.
type Message struct {
	Token   string          `json:"token"`
	MType   string          `json:"mtype"`
	Payload json.RawMessage `json:"payload"`
}
