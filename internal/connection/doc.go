// Package connection implements the realtime Connection Registry.
//
// The registry:
//   - Keeps at most one WebSocket per endpoint (meeting, chat, notifications)
//   - Decodes inbound envelopes and routes them to per-endpoint handler sets
//   - Reconnects after unexpected closures with linear backoff (1s, 2s, ... 5s)
//   - Gives up after 5 consecutive failed attempts and reports a terminal error
//
// Every fault is reported through the handler set or a boolean return; the
// public operations never panic and never return errors.
package connection
