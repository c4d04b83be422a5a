package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"usdataexplorer/pkg/contracts/events"
)

// Connection is the subset of *websocket.Conn a Client uses. Tests swap in
// an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	// RemoteAddr is "" when the peer address is unknown
	RemoteAddr() string
}

// gorillaConn satisfies Connection with the embedded conn, reporting the
// peer address as a string for log attributes.
type gorillaConn struct {
	*websocket.Conn
}

func (c gorillaConn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Broadcaster is what the rest of the application needs from the hub
type Broadcaster interface {
	Broadcast(msg events.WebSocketMessage)
	BroadcastDatasetStatus(status events.DatasetStatus)
	ClientCount() int
}
