// Package agent contains the agent personas of Sherpa and the executor that
// runs them. The package focuses on three concerns:
//
//  1. Static persona definitions (Descriptor, Registry, DefaultRegistry)
//  2. Output post-processing selected per persona (PostProcess: identity,
//     legal disclaimer, structured business canvas)
//  3. Executor, which renders the persona prompt, replays the thread history,
//     performs at most one web search round-trip and turns every generation
//     failure into user-visible content
//
// Execution Model:
//   - Execute receives a snapshot of the thread whose last message is the
//     user turn being answered
//   - The executor never mutates the thread; callers append the returned
//     AgentResult through the session manager
//   - A single Execute issues at most two model calls
package agent
