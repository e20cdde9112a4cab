package router

import (
	"time"

	"github.com/syncmeet/realtime/internal/connection"
)

// RouterConfig holds configuration for the Router.
type RouterConfig struct {
	// Initial capacity of each output buffer
	BufferSize int // Default: 1000
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{BufferSize: 1000}
}

// ChatRecord is a chat message observed on an endpoint.
type ChatRecord struct {
	Endpoint   string
	ReceivedAt time.Time
	Message    connection.ChatMessage
}

// ParticipantRecord is a participant update observed on an endpoint.
type ParticipantRecord struct {
	Endpoint   string
	ReceivedAt time.Time
	Update     connection.ParticipantUpdate
}

// NotificationRecord is a notification observed on an endpoint.
type NotificationRecord struct {
	Endpoint     string
	ReceivedAt   time.Time
	Notification connection.Notification
}

// RouterBuffers provides access to output buffers for writers.
type RouterBuffers struct {
	Chat         *GrowableBuffer[ChatRecord]
	Participant  *GrowableBuffer[ParticipantRecord]
	Notification *GrowableBuffer[NotificationRecord]
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived  int64
	MessagesRouted    int64
	UnknownMessages   int64
	TransportErrors   int64
	Reconnects        int64 // connection changes to true after the first
	TerminalFailures  int64
	ChatBuffer        BufferStats
	ParticipantBuffer BufferStats
	NotifyBuffer      BufferStats
}
