package connection

import "time"

// Channels wraps a Registry with helpers named after the application's
// logical channels.
type Channels struct {
	reg *Registry
	now func() time.Time
}

// NewChannels creates channel helpers over reg.
func NewChannels(reg *Registry) *Channels {
	return &Channels{reg: reg, now: time.Now}
}

// Registry returns the underlying registry.
func (c *Channels) Registry() *Registry { return c.reg }

func (c *Channels) ConnectToMeeting(meetingID string, h Handlers) bool {
	return c.reg.Connect(MeetingEndpoint(meetingID), h)
}

func (c *Channels) ConnectToNotifications(h Handlers) bool {
	return c.reg.Connect(NotificationsEndpoint, h)
}

func (c *Channels) ConnectToChat(meetingID string, h Handlers) bool {
	return c.reg.Connect(ChatEndpoint(meetingID), h)
}

// SendChatMessage posts a chat line on the meeting's chat channel.
func (c *Channels) SendChatMessage(meetingID, message, senderID, senderName string) bool {
	env := NewChatEnvelope(meetingID, message, senderID, senderName, c.now())
	return c.reg.Send(ChatEndpoint(meetingID), env)
}

// SendParticipantUpdate announces a participant state change on the
// meeting's signaling channel.
func (c *Channels) SendParticipantUpdate(meetingID string, action ParticipantAction, participantID string) bool {
	if !action.Valid() {
		return false
	}
	env := NewParticipantUpdateEnvelope(meetingID, participantID, action, c.now())
	return c.reg.Send(MeetingEndpoint(meetingID), env)
}

func (c *Channels) DisconnectFromMeeting(meetingID string) {
	c.reg.Disconnect(MeetingEndpoint(meetingID))
}

func (c *Channels) DisconnectFromNotifications() {
	c.reg.Disconnect(NotificationsEndpoint)
}

func (c *Channels) DisconnectFromChat(meetingID string) {
	c.reg.Disconnect(ChatEndpoint(meetingID))
}
