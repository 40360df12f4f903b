// Package hooks validates and enriches hook event payloads before they
// are queued for delivery.
//
// Validation rejects payloads that are too deeply nested, carry oversized
// strings, or contain credential-looking field names. Enrichment infers a
// success flag for tool-completion events and stamps payloads that arrive
// without a timestamp.
package hooks
