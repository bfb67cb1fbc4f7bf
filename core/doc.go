// Package core provides the foundational domain types and interfaces used by
// Sherpa. It defines:
//
//   - Messages (immutable entries of a conversation, authored by the user, an
//     agent or a tool)
//   - Threads (append-only conversations tracking the last answering agent)
//   - Agent identifiers, routing decisions and agent results
//   - The ThreadStore interface implemented by the session package
//
// Implementation concerns (model providers, routing, persistence, transport)
// live in their own packages and depend on core, never the other way round.
package core
