package archive

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/syncmeet/realtime/internal/router"
)

// keySpace namespaces derived row ids.
var keySpace = uuid.MustParse("6f1c9d1e-3a47-4d3e-9d55-2b8f0c7a4e10")

// deriveID returns a stable id for records the server sent without one.
// The same inputs always produce the same id, so replayed frames collide
// on the primary key.
func deriveID(kind string, parts ...string) string {
	data := kind
	for _, p := range parts {
		data += "\x00" + p
	}
	return uuid.NewSHA1(keySpace, []byte(data)).String()
}

func orReceived(ts, received time.Time) time.Time {
	if ts.IsZero() {
		return received.UTC()
	}
	return ts.UTC()
}

type chatRow struct {
	ID         string
	MeetingID  string
	SenderID   string
	SenderName string
	Body       string
	SentAt     time.Time
	ReceivedAt time.Time
	Endpoint   string
}

func chatToRow(rec router.ChatRecord) chatRow {
	m := rec.Message
	sentAt := orReceived(m.Timestamp, rec.ReceivedAt)
	id := m.ID
	if id == "" {
		id = deriveID("chat", m.MeetingID, m.SenderID, sentAt.Format(time.RFC3339Nano), m.Message)
	}
	return chatRow{
		ID:         id,
		MeetingID:  m.MeetingID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Message,
		SentAt:     sentAt,
		ReceivedAt: rec.ReceivedAt.UTC(),
		Endpoint:   rec.Endpoint,
	}
}

func queueChat(b *pgx.Batch, rec router.ChatRecord) {
	r := chatToRow(rec)
	b.Queue(`
		INSERT INTO chat_messages (id, meeting_id, sender_id, sender_name, body, sent_at, received_at, endpoint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.MeetingID, r.SenderID, r.SenderName, r.Body, r.SentAt, r.ReceivedAt, r.Endpoint)
}

type participantRow struct {
	MeetingID     string
	ParticipantID string
	Action        string
	OccurredAt    time.Time
	ReceivedAt    time.Time
}

func participantToRow(rec router.ParticipantRecord) participantRow {
	u := rec.Update
	return participantRow{
		MeetingID:     u.MeetingID,
		ParticipantID: u.ParticipantID,
		Action:        string(u.Action),
		OccurredAt:    orReceived(u.Timestamp, rec.ReceivedAt),
		ReceivedAt:    rec.ReceivedAt.UTC(),
	}
}

func queueParticipant(b *pgx.Batch, rec router.ParticipantRecord) {
	r := participantToRow(rec)
	b.Queue(`
		INSERT INTO participant_events (meeting_id, participant_id, action, occurred_at, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (meeting_id, participant_id, action, occurred_at) DO NOTHING
	`, r.MeetingID, r.ParticipantID, r.Action, r.OccurredAt, r.ReceivedAt)
}

type notificationRow struct {
	ID         string
	Type       string
	MeetingID  string
	Title      string
	Body       string
	CreatedAt  time.Time
	Read       bool
	ReceivedAt time.Time
}

func notificationToRow(rec router.NotificationRecord) notificationRow {
	n := rec.Notification
	createdAt := orReceived(n.Timestamp, rec.ReceivedAt)
	id := n.ID
	if id == "" {
		id = deriveID("notification", string(n.Type), n.MeetingID, createdAt.Format(time.RFC3339Nano), n.Title)
	}
	return notificationRow{
		ID:         id,
		Type:       string(n.Type),
		MeetingID:  n.MeetingID,
		Title:      n.Title,
		Body:       n.Message,
		CreatedAt:  createdAt,
		Read:       n.Read,
		ReceivedAt: rec.ReceivedAt.UTC(),
	}
}

func queueNotification(b *pgx.Batch, rec router.NotificationRecord) {
	r := notificationToRow(rec)
	b.Queue(`
		INSERT INTO notifications (id, type, meeting_id, title, body, created_at, read, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.Type, r.MeetingID, r.Title, r.Body, r.CreatedAt, r.Read, r.ReceivedAt)
}

// NewChatWriter creates a writer for chat_messages.
func NewChatWriter(cfg WriterConfig, input *router.GrowableBuffer[router.ChatRecord], db DB, logger *slog.Logger) *Writer[router.ChatRecord] {
	return newWriter("chat", cfg, input, db, queueChat, logger)
}

// NewParticipantWriter creates a writer for participant_events.
func NewParticipantWriter(cfg WriterConfig, input *router.GrowableBuffer[router.ParticipantRecord], db DB, logger *slog.Logger) *Writer[router.ParticipantRecord] {
	return newWriter("participant", cfg, input, db, queueParticipant, logger)
}

// NewNotificationWriter creates a writer for notifications.
func NewNotificationWriter(cfg WriterConfig, input *router.GrowableBuffer[router.NotificationRecord], db DB, logger *slog.Logger) *Writer[router.NotificationRecord] {
	return newWriter("notification", cfg, input, db, queueNotification, logger)
}
