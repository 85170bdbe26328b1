// Package truthsocial implements the authenticated HTTP transport for a
// Truth Social style API: bearer-token sessions, retry with backoff on
// transient failures, Retry-After handling, and per-session rate-limit
// state tracked from response headers.
//
// Endpoint-specific request builders live here too, but they are thin
// wrappers: all resilience behavior is in Session.Execute.
package truthsocial
