package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaykit/agentmcp/agent"
)

func TestClient_ChatParsesAssistantMessageAndToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		var decoded map[string]any
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if decoded["temperature"] != float64(1) {
			t.Fatalf("expected flattened temperature field, got %+v", decoded)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": null, "tool_calls": [
				{"id": "c1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"location\":\"Hangzhou\"}"}}
			]}}]
		}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg, err := client.Chat(context.Background(), []agent.Message{{Role: agent.RoleUser, Content: "hi"}}, nil, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].ID != "c1" {
		t.Fatalf("unexpected tool calls: %+v", msg.ToolCalls)
	}
	if msg.ToolCalls[0].Arguments["location"] != "Hangzhou" {
		t.Fatalf("unexpected decoded arguments: %+v", msg.ToolCalls[0].Arguments)
	}
}

func TestClient_ChatReturnsUpstreamErrorOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Chat(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected upstream error")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if upstream.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status code: %d", upstream.StatusCode)
	}
}

func TestClient_ChatRejectsInvalidDecodingConfig(t *testing.T) {
	client, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	invalid := DecodingConfig{Model: "m", Temperature: 5}
	_, err = client.Chat(context.Background(), nil, nil, &invalid)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
