package agent_test

import (
	"testing"

	"github.com/relaykit/agentmcp/agent"
)

func TestCloneMessage_DeepCopiesToolCalls(t *testing.T) {
	t.Parallel()

	original := agent.Message{
		Role: agent.RoleAssistant,
		ToolCalls: []agent.ToolCall{
			{ID: "c1", Name: "get_weather", Arguments: map[string]any{"location": "Hangzhou"}},
		},
	}

	clone := agent.CloneMessage(original)
	clone.ToolCalls[0].Arguments["location"] = "mutated"

	if original.ToolCalls[0].Arguments["location"] != "Hangzhou" {
		t.Fatalf("mutation of clone leaked into original: %+v", original.ToolCalls[0].Arguments)
	}
}

func TestCloneMessages_PreservesOrderAndLength(t *testing.T) {
	t.Parallel()

	in := []agent.Message{
		{Role: agent.RoleSystem, Content: "sys"},
		{Role: agent.RoleUser, Content: "hi"},
	}
	out := agent.CloneMessages(in)
	if len(out) != len(in) {
		t.Fatalf("expected %d messages, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Role != in[i].Role || out[i].Content != in[i].Content {
			t.Fatalf("message %d mismatch: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestCloneToolDefinitions_IsolatesParameterSchema(t *testing.T) {
	t.Parallel()

	in := []agent.ToolDefinition{
		{Name: "get_weather", ParameterSchema: map[string]any{"type": "object"}},
	}
	out := agent.CloneToolDefinitions(in)
	out[0].ParameterSchema["type"] = "mutated"

	if in[0].ParameterSchema["type"] != "object" {
		t.Fatalf("mutation of clone leaked into original: %+v", in[0].ParameterSchema)
	}
}
