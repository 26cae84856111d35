/*
Package lifecycle owns a conversation from the first prompt to the finalize
hand-off.

The engine is pure: it turns a state and an input into the next state. The
Service adds everything around it. It issues session IDs, validates seed
criteria, and sanitizes input. It enforces the message budget and session
age, keeps the transcript, and serializes turns per session. On completion
it delivers the payload to each Finalizer exactly once.
*/
package lifecycle
