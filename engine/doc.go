// Package engine is the request-facing orchestration layer of Sherpa.
//
// An Engine turns one inbound chat unit {message, thread_id?, agent?} into
// exactly one agent reply:
//
//  1. resolve the thread id (a fresh one is generated when missing)
//  2. either dispatch directly to the named agent, or append the user
//     message and ask the supervisor which agent answers
//  3. run the agent executor once
//  4. append the agent reply to the thread and return it
//
// Storage goes through a session.Manager, so the in-memory and SQLite stores
// are interchangeable. Lifecycle callbacks (before_route, after_route,
// before_agent, after_agent, on_error) let cross-cutting concerns such as
// metrics observe every turn without touching the core flow.
//
// Usage:
//
//	eng := engine.New(supervisor, executor,
//	    func(o *engine.Options) { o.Logger = logger })
//
//	resp, err := eng.Chat(ctx, engine.ChatRequest{Message: "보조금 정보 알려줘"})
package engine
