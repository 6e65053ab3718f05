package chatapi

import (
	"context"
	"testing"

	"github.com/relaykit/agentmcp/agent"
)

type stubCompleter struct {
	responses []error
	calls     int
}

func (s *stubCompleter) Chat(context.Context, []agent.Message, []agent.ToolDefinition, *DecodingConfig) (agent.Message, error) {
	err := s.responses[s.calls]
	s.calls++
	if err != nil {
		return agent.Message{}, err
	}
	return agent.Message{Role: agent.RoleAssistant, Content: "ok"}, nil
}

func TestWithRetry_RetriesOn5xxThenSucceeds(t *testing.T) {
	stub := &stubCompleter{responses: []error{
		&UpstreamError{StatusCode: 503},
		nil,
	}}
	client := WithRetry(stub, RetryConfig{MaxAttempts: 3})

	msg, err := client.Chat(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if msg.Content != "ok" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", stub.calls)
	}
}

func TestWithRetry_DoesNotRetry4xx(t *testing.T) {
	stub := &stubCompleter{responses: []error{
		&UpstreamError{StatusCode: 400},
		nil,
	}}
	client := WithRetry(stub, RetryConfig{MaxAttempts: 3})

	_, err := client.Chat(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected error to propagate without retry")
	}
	if stub.calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", stub.calls)
	}
}
