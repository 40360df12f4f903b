// Package config loads and validates herald's TOML configuration.
//
// Configuration is scoped: a project directory may carry its own
// .herald/ntfy-service/config.toml which takes precedence over the global
// file under the user's home directory. The same scope directory also hosts
// the daemon socket, PID file, and logs, so resolving a scope resolves every
// runtime path at once.
//
// Load applies repository defaults first, decodes the file on top, then
// normalizes and validates the result. Callers always receive a fully
// populated Config.
package config
