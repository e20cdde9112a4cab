// Package api is the REST client for the meeting backend.
//
// All endpoints live under /req on the same host as the realtime sockets:
//   - auth:     /req/login, /req/logout
//   - user:     /req/user/profile
//   - meetings: /req/meetings, /req/meetings/{id}[/join|/leave|/participants]
//   - contacts: /req/contacts, /req/contacts/search
//
// Server errors (5xx) are retried with linear backoff. A 401 surfaces as
// ErrUnauthorized and clears the attached session.
package api
