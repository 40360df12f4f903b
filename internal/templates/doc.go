// Package templates renders notification titles and bodies from hook
// event payloads.
//
// Each known hook name has a builtin body template plus a default priority
// and tag set; unknown hooks fall back to a generic listing of the event
// fields. Custom templates registered from configuration override the
// builtins per hook.
package templates
