package server

import "encoding/json"

const (
	// MsgMeta describes the capture to a fresh viewer: column
	// names and cadence, enough to lay out the plots
	MsgMeta = "meta"
	// MsgFrame carries one published window snapshot
	MsgFrame = "frame"
)

// SockResponse is the envelope for every message pushed to a
// viewer socket.
type SockResponse struct {
	MType   string          `json:"mtype"`
	Payload json.RawMessage `json:"payload"`
}

// Meta is the payload of the first message after connect.
type Meta struct {
	Columns   []string `json:"columns"`
	RefreshMs int      `json:"refresh_ms"`
	Window    int      `json:"window"`
}
