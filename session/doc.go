// Package session houses the thread lifecycle: the Manager that callers use
// to create threads and append turns, and concrete implementations of
// core.ThreadStore. The interface itself lives in the core package so higher
// level packages (router, agent, engine) never depend on concrete storage.
//
// Add additional backends in sub-packages (see session/sqlite) without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session
