package agent_test

import (
	"strings"
	"testing"

	"github.com/relaykit/agentmcp/agent"
)

func TestValidateToolArguments_NilSchemaAlwaysValid(t *testing.T) {
	t.Parallel()

	if err := agent.ValidateToolArguments(nil, map[string]any{"anything": true}); err != nil {
		t.Fatalf("expected nil schema to always validate, got %v", err)
	}
}

func TestValidateToolArguments_MissingRequiredField(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type":     "object",
		"required": []any{"location"},
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
	}
	err := agent.ValidateToolArguments(schema, map[string]any{})
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestValidateToolArguments_WrongType(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
	}
	err := agent.ValidateToolArguments(schema, map[string]any{"location": 42})
	if err == nil {
		t.Fatal("expected error for wrong argument type")
	}
	if !strings.Contains(err.Error(), "location") {
		t.Fatalf("expected error to mention field name, got %q", err)
	}
}

func TestValidateToolArguments_ValidPasses(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type":     "object",
		"required": []any{"location"},
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
	}
	if err := agent.ValidateToolArguments(schema, map[string]any{"location": "Hangzhou"}); err != nil {
		t.Fatalf("expected valid arguments to pass, got %v", err)
	}
}

func TestNormalizedToolErrorResult_MarksIsErrorAndReason(t *testing.T) {
	t.Parallel()

	call := agent.ToolCall{ID: "c1", Name: "get_weather"}
	result := agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonUnknownTool, nil)

	if !result.IsError {
		t.Fatal("expected IsError to be true")
	}
	if result.FailureReason != agent.ToolFailureReasonUnknownTool {
		t.Fatalf("unexpected failure reason: %s", result.FailureReason)
	}
	if result.CallID != "c1" || result.Name != "get_weather" {
		t.Fatalf("unexpected call id/name propagation: %+v", result)
	}
}
