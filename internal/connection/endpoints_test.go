package connection

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEndpointNames(t *testing.T) {
	if got := MeetingEndpoint("M1"); got != "/ws/meeting/M1" {
		t.Errorf("MeetingEndpoint = %q", got)
	}
	if got := ChatEndpoint("M1"); got != "/ws/chat/M1" {
		t.Errorf("ChatEndpoint = %q", got)
	}
	if got := ChatEndpoint("a/b"); got != "/ws/chat/a%2Fb" {
		t.Errorf("ChatEndpoint escaping = %q", got)
	}
	if NotificationsEndpoint != "/ws/notifications" {
		t.Errorf("NotificationsEndpoint = %q", NotificationsEndpoint)
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "https://syncmeet.example.com", want: "wss://syncmeet.example.com/ws/notifications"},
		{base: "http://localhost:8080", want: "ws://localhost:8080/ws/notifications"},
		{base: "https://syncmeet.example.com/", want: "wss://syncmeet.example.com/ws/notifications"},
		{base: "wss://already.example.com", want: "wss://already.example.com/ws/notifications"},
		{base: "ftp://example.com", wantErr: true},
		{base: "://bad", wantErr: true},
		{base: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := SocketURL(tt.base, NotificationsEndpoint)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SocketURL(%q) = %q, want error", tt.base, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SocketURL(%q): %v", tt.base, err)
			}
			if got != tt.want {
				t.Errorf("SocketURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestNewParticipantUpdateEnvelope(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	env := NewParticipantUpdateEnvelope("M1", "p7", ActionVideoOff, now)

	if env.Type != TypeParticipantUpdate {
		t.Errorf("Type = %q", env.Type)
	}
	if env.Timestamp.Location() != time.UTC {
		t.Error("timestamp should be UTC")
	}

	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	want := map[string]string{
		"meetingId":     "M1",
		"participantId": "p7",
		"action":        "video_off",
		"timestamp":     "2024-03-01T08:30:00Z",
	}
	for k, v := range want {
		if data[k] != v {
			t.Errorf("data[%q] = %q, want %q", k, data[k], v)
		}
	}
}

func TestDecode(t *testing.T) {
	env, err := Decode([]byte(`{"type":"notification","data":{"id":"n1","type":"recording_started","meetingId":"M1","read":true},"timestamp":"2024-01-01T00:00:00.000Z","senderId":"srv"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.SenderID != "srv" {
		t.Errorf("SenderID = %q", env.SenderID)
	}

	p, err := env.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	n, ok := p.(Notification)
	if !ok {
		t.Fatalf("payload type %T, want Notification", p)
	}
	if n.Type != NotifyRecordingStarted || !n.Read || n.MeetingID != "M1" {
		t.Errorf("notification = %+v", n)
	}

	if _, err := Decode([]byte(`{"data":{}}`)); !errors.Is(err, ErrMissingType) {
		t.Errorf("missing type error = %v", err)
	}
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestDecode_Timestamps(t *testing.T) {
	tests := []struct {
		name    string
		ts      string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339 utc", ts: `"2024-01-01T10:30:00Z"`, want: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{name: "rfc3339 millis", ts: `"2024-01-01T10:30:00.250Z"`, want: time.Date(2024, 1, 1, 10, 30, 0, 250e6, time.UTC)},
		{name: "rfc3339 offset", ts: `"2024-01-01T12:30:00+02:00"`, want: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{name: "compact offset", ts: `"2024-01-01T12:30:00+0200"`, want: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{name: "local date-time", ts: `"2024-01-01T10:30:00"`, want: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{name: "local with millis", ts: `"2024-01-01T10:30:00.000"`, want: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{name: "local with nanos", ts: `"2024-01-01T10:30:00.123456789"`, want: time.Date(2024, 1, 1, 10, 30, 0, 123456789, time.UTC)},
		{name: "empty", ts: `""`},
		{name: "null", ts: `null`},
		{name: "garbage", ts: `"yesterday"`, wantErr: true},
		{name: "number", ts: `1704067200`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := `{"type":"chat_message","data":{"meetingId":"M1","message":"hi","timestamp":` + tt.ts + `},"timestamp":` + tt.ts + `}`

			env, err := Decode([]byte(frame))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !env.Timestamp.Equal(tt.want) {
				t.Errorf("envelope timestamp = %v, want %v", env.Timestamp, tt.want)
			}

			p, err := env.Payload()
			if err != nil {
				t.Fatalf("Payload: %v", err)
			}
			msg, ok := p.(ChatMessage)
			if !ok {
				t.Fatalf("payload type %T, want ChatMessage", p)
			}
			if !msg.Timestamp.Equal(tt.want) {
				t.Errorf("chat timestamp = %v, want %v", msg.Timestamp, tt.want)
			}
		})
	}

	// Payload kinds other than chat share the same decoding.
	upd := Envelope{Type: TypeParticipantUpdate, Data: json.RawMessage(`{"participantId":"p1","action":"joined","timestamp":"2024-01-01T10:30:00"}`)}
	p, err := upd.Payload()
	if err != nil {
		t.Fatalf("participant Payload: %v", err)
	}
	if got := p.(ParticipantUpdate).Timestamp; !got.Equal(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("participant timestamp = %v", got)
	}

	n := Envelope{Type: TypeNotification, Data: json.RawMessage(`{"id":"n1","type":"meeting_end","timestamp":""}`)}
	p, err = n.Payload()
	if err != nil {
		t.Fatalf("notification Payload: %v", err)
	}
	if got := p.(Notification).Timestamp; !got.IsZero() {
		t.Errorf("notification timestamp = %v, want zero", got)
	}
}

func TestPayload_Unknown(t *testing.T) {
	env := Envelope{Type: "reaction", Data: json.RawMessage(`{"emoji":"+1"}`)}
	p, err := env.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	u, ok := p.(Unknown)
	if !ok || u.Type != "reaction" || string(u.Data) != `{"emoji":"+1"}` {
		t.Errorf("payload = %#v", p)
	}
}

func TestPayload_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want error
	}{
		{
			name: "chat without meeting",
			env:  Envelope{Type: TypeChatMessage, Data: json.RawMessage(`{"message":"x"}`)},
			want: ErrMissingField,
		},
		{
			name: "participant without id",
			env:  Envelope{Type: TypeParticipantUpdate, Data: json.RawMessage(`{"action":"joined"}`)},
			want: ErrMissingField,
		},
		{
			name: "participant bad action",
			env:  Envelope{Type: TypeParticipantUpdate, Data: json.RawMessage(`{"participantId":"p","action":"waving"}`)},
			want: ErrInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.env.Payload(); !errors.Is(err, tt.want) {
				t.Errorf("Payload error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncode_RequiresType(t *testing.T) {
	if _, err := Encode(Envelope{}); !errors.Is(err, ErrMissingType) {
		t.Errorf("Encode error = %v, want ErrMissingType", err)
	}

	data, err := Encode(Envelope{Type: "ping"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var wire map[string]any
	json.Unmarshal(data, &wire)
	if _, ok := wire["data"].(map[string]any); !ok {
		t.Errorf("data = %v, want empty object", wire["data"])
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindReconnectExhausted, Endpoint: "/ws/notifications", Attempts: 5}
	if got := err.Error(); got != "/ws/notifications: failed to reconnect after 5 attempts" {
		t.Errorf("Error() = %q", got)
	}
	if !err.Terminal() {
		t.Error("expected Terminal")
	}

	setup := &Error{Kind: KindSetup, Endpoint: "", Err: ErrEmptyEndpoint}
	if !errors.Is(setup, ErrEmptyEndpoint) {
		t.Error("setup error should unwrap to ErrEmptyEndpoint")
	}
}
