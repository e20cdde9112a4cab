package connection

import "log/slog"

// dispatch decodes one frame and invokes the matching callbacks.
// OnMessage always runs first; the kind-specific callback follows.
// Malformed frames and unknown kinds are logged and dropped.
//
// live is consulted before each callback, so a connection retired in
// between (including from inside OnMessage) gets no further callbacks.
func dispatch(logger *slog.Logger, h Handlers, frame []byte, live func() bool) {
	if !live() {
		return
	}

	env, err := Decode(frame)
	if err != nil {
		logger.Warn("dropping malformed frame", "error", err, "size", len(frame))
		return
	}

	if h.OnMessage != nil {
		h.OnMessage(env)
	}

	payload, err := env.Payload()
	if err != nil {
		logger.Warn("dropping invalid payload", "type", env.Type, "error", err)
		return
	}

	if !live() {
		return
	}

	switch p := payload.(type) {
	case ChatMessage:
		if h.OnChatMessage != nil {
			h.OnChatMessage(p)
		}
	case ParticipantUpdate:
		if h.OnParticipantUpdate != nil {
			h.OnParticipantUpdate(p)
		}
	case Notification:
		if h.OnNotification != nil {
			h.OnNotification(p)
		}
	case Unknown:
		logger.Debug("unknown message type", "type", p.Type)
	}
}
