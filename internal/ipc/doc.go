// Package ipc exposes the daemon over a framed Unix socket protocol and
// ships the matching client used by the CLI.
//
// Every message travels as a 4-byte little-endian length prefix followed by
// a JSON payload. Requests and responses are tagged sum types; each request
// receives exactly one response on the same connection before the next
// request is read. The server owns socket lifecycle management and spawns
// one goroutine per accepted connection, while dispatch semantics live with
// the daemon behind the Dispatcher interface.
package ipc
