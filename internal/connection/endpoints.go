package connection

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NotificationsEndpoint is the per-user notification channel.
const NotificationsEndpoint = "/ws/notifications"

// MeetingEndpoint returns the signaling channel for a meeting.
func MeetingEndpoint(meetingID string) string {
	return "/ws/meeting/" + url.PathEscape(meetingID)
}

// ChatEndpoint returns the chat channel for a meeting.
func ChatEndpoint(meetingID string) string {
	return "/ws/chat/" + url.PathEscape(meetingID)
}

// SocketURL derives the socket address for endpoint from the REST base
// address: http becomes ws and https becomes wss. ws/wss bases pass through.
func SocketURL(baseURL, endpoint string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}

	return strings.TrimSuffix(u.String(), "/") + endpoint, nil
}

// NewChatEnvelope builds an outbound chat_message envelope.
func NewChatEnvelope(meetingID, message, senderID, senderName string, now time.Time) Envelope {
	now = now.UTC()
	return newEnvelope(TypeChatMessage, ChatMessage{
		MeetingID:  meetingID,
		Message:    message,
		SenderID:   senderID,
		SenderName: senderName,
		Timestamp:  now,
	}, now)
}

// NewParticipantUpdateEnvelope builds an outbound participant_update envelope.
func NewParticipantUpdateEnvelope(meetingID, participantID string, action ParticipantAction, now time.Time) Envelope {
	now = now.UTC()
	return newEnvelope(TypeParticipantUpdate, ParticipantUpdate{
		MeetingID:     meetingID,
		ParticipantID: participantID,
		Action:        action,
		Timestamp:     now,
	}, now)
}

func newEnvelope(kind string, payload any, now time.Time) Envelope {
	// Payload types are plain structs; marshaling cannot fail.
	data, _ := json.Marshal(payload)
	return Envelope{
		Type:      kind,
		Data:      data,
		Timestamp: now,
	}
}
