/*
Package domain contains the core domain models of the lodge conversation engine.

It defines the fundamental entities of the preference-collection dialog, such as
Steps, Filters, Preferences and the ConversationState that the state machine
threads through every turn. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Step: The enumerated position of a session inside the dialog.
  - ConversationState: The owned, per-session aggregate mutated only by transitions.
  - Prompt: A bot-authored message plus optional fixed response options.
  - Turn: One transcript record (bot or user) with its timestamp.
  - FinalizationPayload: The one-shot, sparse result handed to fulfillment.
  - Session: The adapter-side record that pairs a state with its transcript.
*/
package domain
