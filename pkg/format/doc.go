// Package format renders filter and preference state into user-facing text.
//
// All functions are pure. An empty string means "nothing to say", letting
// callers skip the clause entirely.
package format
