package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrEmptyEndpoint   = errors.New("endpoint is empty")
	ErrRegistryClosed  = errors.New("registry closed")
)

// Reconnection defaults.
const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectBaseDelay   = 1 * time.Second
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a single WebSocket transport.
type ClientConfig struct {
	URL              string            // Socket URL (e.g., wss://host/ws/chat/M1)
	Header           map[string]string // Extra handshake headers (Authorization)
	HandshakeTimeout time.Duration     // Max time for the opening handshake
	PingInterval     time.Duration     // How often a keepalive ping is written
	PingTimeout      time.Duration     // Max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration     // Write deadline for sends
	BufferSize       int               // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// RegistryConfig configures the Connection Registry.
type RegistryConfig struct {
	BaseURL              string        // REST base address (http/https); rewritten to ws/wss
	MaxReconnectAttempts int           // Automatic retries before giving up
	ReconnectBaseDelay   time.Duration // Delay unit; attempt n waits n * base
	Client               ClientConfig  // Template for every transport (URL is filled in)
}

// DefaultRegistryConfig returns sensible defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		ReconnectBaseDelay:   DefaultReconnectBaseDelay,
		Client:               DefaultClientConfig(),
	}
}

// ConnState is the lifecycle state of one endpoint.
type ConnState string

const (
	StateAbsent     ConnState = "absent"     // not tracked (never connected, disconnected, or terminal)
	StateConnecting ConnState = "connecting" // handshake in flight
	StateOpen       ConnState = "open"       // open and ready
	StateRetrying   ConnState = "retrying"   // closed unexpectedly, reconnect scheduled
)

// Handlers is the set of optional callbacks for one endpoint.
// A nil field means the event is ignored.
type Handlers struct {
	OnMessage           func(Envelope)
	OnChatMessage       func(ChatMessage)
	OnParticipantUpdate func(ParticipantUpdate)
	OnNotification      func(Notification)
	OnConnectionChange  func(connected bool)
	OnError             func(*Error)
}

func (h Handlers) connectionChange(connected bool) {
	if h.OnConnectionChange != nil {
		h.OnConnectionChange(connected)
	}
}

func (h Handlers) error(err *Error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
