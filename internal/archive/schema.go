package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the archive tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id          TEXT PRIMARY KEY,
	meeting_id  TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	sender_name TEXT NOT NULL,
	body        TEXT NOT NULL,
	sent_at     TIMESTAMPTZ NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	endpoint    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_meeting_idx ON chat_messages (meeting_id, sent_at);

CREATE TABLE IF NOT EXISTS participant_events (
	meeting_id     TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	action         TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	received_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (meeting_id, participant_id, action, occurred_at)
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	meeting_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	read        BOOLEAN NOT NULL DEFAULT FALSE,
	received_at TIMESTAMPTZ NOT NULL
);
`

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply archive schema: %w", err)
	}
	return nil
}
