package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/tool"
)

// DefaultToolCallID is used when a model omits the id of a tool call.
const DefaultToolCallID = "search"

// normalizeToolCalls fills in missing tool call ids. A lone call gets
// DefaultToolCallID; with several calls the id carries the 1-based position
// (search_1, search_2, ...) so every tool result stays addressable.
func normalizeToolCalls(calls []core.ToolCall) []core.ToolCall {
	out := make([]core.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = DefaultToolCallID
			if len(calls) > 1 {
				c.ID = fmt.Sprintf("%s_%d", DefaultToolCallID, i+1)
			}
		}
		out[i] = c
	}

	return out
}

// executeToolCalls resolves every call sequentially and returns one tool
// result message per call, in call order. Failures never abort the turn:
// they become the content of the corresponding tool result.
func (e *Executor) executeToolCalls(ctx context.Context, agentID core.AgentID, calls []core.ToolCall) []core.Message {
	results := make([]core.Message, 0, len(calls))

	for _, call := range calls {
		start := time.Now()

		content, err := e.executeTool(ctx, call)
		if err != nil {
			content = err.Error()
		}

		e.logger.Info(
			"agent.tool.executed",
			"agent", string(agentID),
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err != nil,
		)

		results = append(results, core.NewToolResultMessage(call.ID, content))
	}

	return results
}

// executeTool looks up and runs a single tool call, recovering panics.
func (e *Executor) executeTool(ctx context.Context, call core.ToolCall) (content string, err error) {
	impl, ok := e.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("tool %s not found", call.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("agent.tool.panic", "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
		}
	}()

	args := tool.ParseArguments(call.Arguments, "query")

	result, err := impl.Call(ctx, args)
	if err != nil {
		return "", err
	}

	return tool.FormatResult(result), nil
}
