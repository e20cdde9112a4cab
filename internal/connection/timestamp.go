package connection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Accepted ISO-8601 forms. Fractional seconds are optional in all of them.
// Values without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
}

// wireTime decodes the timestamps peers actually send. Empty and null
// values decode to the zero time.
type wireTime time.Time

func (w *wireTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*w = wireTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}

	t, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*w = wireTime(t)
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	type plain Envelope
	aux := struct {
		*plain
		Timestamp wireTime `json:"timestamp"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Timestamp = time.Time(aux.Timestamp)
	return nil
}

func (m *ChatMessage) UnmarshalJSON(b []byte) error {
	type plain ChatMessage
	aux := struct {
		*plain
		Timestamp wireTime `json:"timestamp"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.Timestamp = time.Time(aux.Timestamp)
	return nil
}

func (u *ParticipantUpdate) UnmarshalJSON(b []byte) error {
	type plain ParticipantUpdate
	aux := struct {
		*plain
		Timestamp wireTime `json:"timestamp"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.Timestamp = time.Time(aux.Timestamp)
	return nil
}

func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Timestamp wireTime `json:"timestamp"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	n.Timestamp = time.Time(aux.Timestamp)
	return nil
}
