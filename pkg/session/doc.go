/*
Package session implements session management and persistence orchestration.

It serializes concurrent access to a conversation across goroutines and,
with a ports.SessionLocker, across replicas, so that every input of a session
is applied to the state produced by the previous one.
*/
package session
