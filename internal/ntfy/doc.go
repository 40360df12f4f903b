// Package ntfy sends push notifications to an ntfy server.
//
// The client sends each message either as a plain-text POST with ntfy
// metadata headers or as a JSON document, retries transient failures with
// exponential backoff and jitter, and keeps rolling delivery statistics.
// HTTP 4xx responses other than 408 and 429 are treated as permanent and
// are not retried.
package ntfy
