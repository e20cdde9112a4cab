// Package archive persists realtime traffic to PostgreSQL.
//
// Writers:
//   - chat writer (chat_messages)
//   - participant writer (participant_events)
//   - notification writer (notifications)
//
// Writers are append-only. Every row has a natural or derived key and is
// inserted with ON CONFLICT DO NOTHING, so replays after a reconnect do not
// duplicate history.
package archive
