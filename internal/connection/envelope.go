package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message kinds understood by the registry.
const (
	TypeChatMessage       = "chat_message"
	TypeParticipantUpdate = "participant_update"
	TypeNotification      = "notification"
)

// Envelope is the wire message shape used in both directions.
type Envelope struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
	SenderID   string          `json:"senderId,omitempty"`
	SenderName string          `json:"senderName,omitempty"`
}

// ChatMessage is the payload of a chat_message envelope.
type ChatMessage struct {
	ID         string    `json:"id,omitempty"`
	MeetingID  string    `json:"meetingId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ParticipantAction is what happened to a participant.
type ParticipantAction string

const (
	ActionJoined   ParticipantAction = "joined"
	ActionLeft     ParticipantAction = "left"
	ActionMuted    ParticipantAction = "muted"
	ActionUnmuted  ParticipantAction = "unmuted"
	ActionVideoOn  ParticipantAction = "video_on"
	ActionVideoOff ParticipantAction = "video_off"
)

// Valid reports whether a is one of the known actions.
func (a ParticipantAction) Valid() bool {
	switch a {
	case ActionJoined, ActionLeft, ActionMuted, ActionUnmuted, ActionVideoOn, ActionVideoOff:
		return true
	}
	return false
}

// ParticipantUpdate is the payload of a participant_update envelope.
type ParticipantUpdate struct {
	MeetingID     string            `json:"meetingId"`
	ParticipantID string            `json:"participantId"`
	Action        ParticipantAction `json:"action"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NotificationType categorizes a meeting notification.
type NotificationType string

const (
	NotifyMeetingStart      NotificationType = "meeting_start"
	NotifyMeetingEnd        NotificationType = "meeting_end"
	NotifyParticipantJoined NotificationType = "participant_joined"
	NotifyParticipantLeft   NotificationType = "participant_left"
	NotifyChatMessage       NotificationType = "chat_message"
	NotifyRecordingStarted  NotificationType = "recording_started"
	NotifyRecordingStopped  NotificationType = "recording_stopped"
)

// Notification is the payload of a notification envelope.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	MeetingID string           `json:"meetingId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

// Unknown carries an envelope whose type the registry does not recognize.
type Unknown struct {
	Type string
	Data json.RawMessage
}

// Payload is one of ChatMessage, ParticipantUpdate, Notification or Unknown.
type Payload interface {
	kind() string
}

func (ChatMessage) kind() string       { return TypeChatMessage }
func (ParticipantUpdate) kind() string { return TypeParticipantUpdate }
func (Notification) kind() string      { return TypeNotification }
func (u Unknown) kind() string         { return u.Type }

// Decode errors.
var (
	ErrMissingType   = errors.New("envelope has no type")
	ErrInvalidAction = errors.New("invalid participant action")
	ErrMissingField  = errors.New("missing required field")
)

// Decode parses one inbound frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// Payload decodes Data according to Type. Unrecognized types yield Unknown
// and never fail.
func (e Envelope) Payload() (Payload, error) {
	switch e.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(e.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode chat message: %w", err)
		}
		if msg.MeetingID == "" {
			return nil, fmt.Errorf("chat message: %w: meetingId", ErrMissingField)
		}
		return msg, nil

	case TypeParticipantUpdate:
		var upd ParticipantUpdate
		if err := json.Unmarshal(e.Data, &upd); err != nil {
			return nil, fmt.Errorf("decode participant update: %w", err)
		}
		if upd.ParticipantID == "" {
			return nil, fmt.Errorf("participant update: %w: participantId", ErrMissingField)
		}
		if !upd.Action.Valid() {
			return nil, fmt.Errorf("participant update: %w: %q", ErrInvalidAction, upd.Action)
		}
		return upd, nil

	case TypeNotification:
		var n Notification
		if err := json.Unmarshal(e.Data, &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		return n, nil
	}

	return Unknown{Type: e.Type, Data: e.Data}, nil
}

// Encode serializes an envelope to the wire format.
func Encode(env Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrMissingType
	}
	if env.Data == nil {
		env.Data = json.RawMessage("{}")
	}
	return json.Marshal(env)
}
