package api

import "time"

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	StatusScheduled MeetingStatus = "scheduled"
	StatusOngoing   MeetingStatus = "ongoing"
	StatusCompleted MeetingStatus = "completed"
	StatusCancelled MeetingStatus = "cancelled"
)

// Meeting is a meeting as returned by /req/meetings.
type Meeting struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	StartTime    time.Time       `json:"startTime"`
	EndTime      time.Time       `json:"endTime"`
	Duration     int             `json:"duration"` // minutes
	HostID       string          `json:"hostId"`
	HostName     string          `json:"hostName"`
	Participants []Participant   `json:"participants"`
	Status       MeetingStatus   `json:"status"`
	MeetingURL   string          `json:"meetingUrl,omitempty"`
	RecordingURL string          `json:"recordingUrl,omitempty"`
	Settings     MeetingSettings `json:"settings"`
}

// Ongoing reports whether the meeting is live.
func (m Meeting) Ongoing() bool {
	return m.Status == StatusOngoing
}

// Participant is a meeting invitee.
type Participant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`   // host, co-host, participant
	Status    string     `json:"status"` // invited, accepted, declined, joined, left
	JoinTime  *time.Time `json:"joinTime,omitempty"`
	LeaveTime *time.Time `json:"leaveTime,omitempty"`
}

// MeetingSettings holds host-controlled meeting options.
type MeetingSettings struct {
	AllowJoinBeforeHost     bool `json:"allowParticipantsToJoinBeforeHost"`
	MuteParticipantsOnEntry bool `json:"muteParticipantsOnEntry"`
	EnableWaitingRoom       bool `json:"enableWaitingRoom"`
	AllowScreenSharing      bool `json:"allowScreenSharing"`
	AllowRecording          bool `json:"allowRecording"`
	EnableChat              bool `json:"enableChat"`
	EnableReactions         bool `json:"enableReactions"`
}

// UserProfile is the authenticated user.
type UserProfile struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Avatar      string          `json:"avatar,omitempty"`
	Preferences UserPreferences `json:"preferences"`
}

// UserPreferences are the user's client settings.
type UserPreferences struct {
	Theme         string `json:"theme"`
	Notifications struct {
		Enabled          bool `json:"enabled"`
		Sound            bool `json:"sound"`
		Vibration        bool `json:"vibration"`
		MeetingReminders bool `json:"meetingReminders"`
	} `json:"notifications"`
}

// Contact is an address book entry.
type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// LoginResponse is returned by /req/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// JoinResponse is returned by /req/meetings/{id}/join.
type JoinResponse struct {
	MeetingURL string `json:"meetingUrl"`
}
