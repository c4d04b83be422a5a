// Package events contains the websocket message contracts of the explorer.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeDatasetStatus reports a dataset load state change
	MessageTypeDatasetStatus MessageType = "dataset:status"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// DatasetState is the lifecycle of a cached dataset
type DatasetState string

const (
	DatasetNotLoaded DatasetState = "not_loaded"
	DatasetLoading   DatasetState = "loading"
	DatasetReady     DatasetState = "ready"
	DatasetFailed    DatasetState = "failed"
	DatasetEvicted   DatasetState = "evicted"
)

// WebSocketMessage is the envelope of every message sent to clients
type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      any         `json:"data,omitempty"`
}

// DatasetStatus is the payload of MessageTypeDatasetStatus
type DatasetStatus struct {
	Dataset   string       `json:"dataset"`
	State     DatasetState `json:"state"`
	Rows      int          `json:"rows,omitempty"`
	Dropped   int          `json:"dropped,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ErrorMessage is the payload of MessageTypeError
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage wraps data in an envelope stamped with the current time
func NewMessage(t MessageType, data any) WebSocketMessage {
	return WebSocketMessage{Type: t, Timestamp: time.Now().UTC(), Data: data}
}
