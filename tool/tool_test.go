package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ context.Context, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ context.Context, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
	toolErr, ok := err.(*ToolError)
	assert.True(t, ok)
	assert.Equal(t, CodeExecution, toolErr.Code)
}

func TestFunctionTool_ForwardsToolError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	custom := NewToolError("quota", "limit", "QUOTA")
	execTool := NewFunctionTool("quota", "Fails", params, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, custom
	})

	_, err := execTool.Call(context.Background(), nil)
	assert.Same(t, custom, err)
}

func TestFunctionToolFromStruct(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
	}
	echo := NewFunctionToolFromStruct("echo", "Echo", args{}, func(_ context.Context, a map[string]any) (any, error) {
		return a["query"], nil
	})

	def := Definition(echo)
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "echo", def.Function.Name)
	assert.ElementsMatch(t, []string{"query"}, def.Function.Parameters["required"])

	out, err := echo.Call(context.Background(), map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

// -------------------- Argument parsing --------------------

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"object", `{"query":"k-startup"}`, map[string]any{"query": "k-startup"}},
		{"plain text", `seoul startup grants`, map[string]any{"query": "seoul startup grants"}},
		{"json string", `"ai market size"`, map[string]any{"query": "ai market size"}},
		{"json array", `["a","b"]`, map[string]any{"query": `["a","b"]`}},
		{"null", `null`, map[string]any{"query": "null"}},
		{"empty", `  `, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArguments(tt.raw, "query"))
		})
	}
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "", FormatResult(nil))
	assert.Equal(t, "text", FormatResult("text"))
	assert.Equal(t, `{"a":1}`, FormatResult(map[string]int{"a": 1}))
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")

	plain := &ToolError{Tool: "demo", Message: "x"}
	assert.Equal(t, "tool error in demo: x", plain.Error())
}
