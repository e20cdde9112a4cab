// Package meetings implements the meeting watcher.
//
// The watcher:
//   - Polls the REST API for ongoing meetings
//   - Keeps the meeting and chat channels of each ongoing meeting connected
//   - Re-opens channels the registry gave up on while the meeting is live
//   - Disconnects channels of meetings that are no longer ongoing
//   - Fetches rosters of newly observed meetings with bounded concurrency
package meetings
