/*
Package ports defines the driven ports (interfaces) for the Lodge service.

These interfaces decouple the conversation lifecycle from external implementations,
allowing it to work with various storage backends and completion sinks.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading live Sessions.
  - SessionLocker: serializes turns of one conversation across replicas.
  - Finalizer: Receives the finalization payload exactly once per completed session.
*/
package ports
