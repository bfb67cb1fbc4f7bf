// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language models inside Sherpa.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition, core.ToolCall)
//   - Express structured output requests (ResponseSchema) independent of vendor
//   - Classify provider failures (Error, Classify) for user-facing handling
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Gemini, OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (router, agents) remain decoupled from vendor SDKs.
package model
