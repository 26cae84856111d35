// Package parser interprets free-text answers into structured values.
//
// Every function is pure and total: malformed input yields an "unset" result
// rather than an error, and the caller decides whether to re-prompt.
package parser
