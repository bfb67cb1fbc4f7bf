// Package router decides which agent answers a user turn.
//
// The Supervisor asks the routing model for a structured classification
// constrained to the registered agent labels. When that call fails, or
// yields no usable agent while a fresh user message is waiting, the ordered
// keyword groups decide instead, so a user turn always reaches an agent.
package router
