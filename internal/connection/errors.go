package connection

import "fmt"

// ErrorKind classifies errors reported through Handlers.OnError.
type ErrorKind string

const (
	// KindSetup means the connection attempt could not be started at all.
	KindSetup ErrorKind = "setup"

	// KindTransport means the socket failed mid-connection or while dialing.
	// A closure (and possibly a retry) follows separately.
	KindTransport ErrorKind = "transport"

	// KindReconnectExhausted means automatic reconnection was abandoned.
	// The endpoint is no longer tracked and must be connected again explicitly.
	KindReconnectExhausted ErrorKind = "reconnect-exhausted"
)

// Error is the structured error passed to Handlers.OnError.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Attempts int // Reconnect attempts made so far (reconnect-exhausted only)
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindReconnectExhausted:
		return fmt.Sprintf("%s: failed to reconnect after %d attempts", e.Endpoint, e.Attempts)
	case KindSetup:
		return fmt.Sprintf("%s: failed to connect: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("%s: websocket error: %v", e.Endpoint, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Terminal reports whether the endpoint was given up on.
func (e *Error) Terminal() bool {
	return e.Kind == KindReconnectExhausted
}
