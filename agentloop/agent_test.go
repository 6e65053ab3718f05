package agentloop_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaykit/agentmcp/agent"
	"github.com/relaykit/agentmcp/agentloop"
	"github.com/relaykit/agentmcp/chatapi"
	"github.com/relaykit/agentmcp/tooling"
)

// scriptedChat replays a fixed sequence of assistant messages, one per
// call, the shape S1-S4 specify their chat-client stubs in.
type scriptedChat struct {
	responses []agent.Message
	calls     int
}

func (s *scriptedChat) Chat(context.Context, []agent.Message, []agent.ToolDefinition, *chatapi.DecodingConfig) (agent.Message, error) {
	if s.calls >= len(s.responses) {
		return agent.Message{}, errors.New("scripted chat: no more responses")
	}
	msg := s.responses[s.calls]
	s.calls++
	return msg, nil
}

func newWeatherRegistry(response string) *tooling.Registry {
	registry := tooling.NewRegistry(nil)
	registry.Register(tooling.NewFuncExecutor("get_weather", "reports weather", nil,
		func(context.Context, map[string]any) (string, error) { return response, nil }))
	return registry
}

func TestSendMessage_SingleToolHappyPath(t *testing.T) {
	chat := &scriptedChat{responses: []agent.Message{
		{
			Role: agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{
				{ID: "c1", Name: "get_weather", Arguments: map[string]any{"location": "Hangzhou"}},
			},
		},
		{Role: agent.RoleAssistant, Content: "The weather in Hangzhou is 24°C, Partly Cloudy"},
	}}
	registry := newWeatherRegistry("24°C, Partly Cloudy")

	a, err := agentloop.New("system prompt", registry, chat, chatapi.DefaultDecodingConfig(), nil, nil)
	require.NoError(t, err)

	final, err := a.SendMessage(context.Background(), "What's the weather in Hangzhou?", nil)
	require.NoError(t, err)
	require.Equal(t, "The weather in Hangzhou is 24°C, Partly Cloudy", final.Content)

	transcript := a.Transcript()
	require.Len(t, transcript, 5)
	require.Equal(t, agent.RoleSystem, transcript[0].Role)
	require.Equal(t, agent.RoleUser, transcript[1].Role)
	require.Equal(t, agent.RoleAssistant, transcript[2].Role)
	require.Equal(t, agent.RoleTool, transcript[3].Role)
	require.Equal(t, "c1", transcript[3].ToolCallID)
	require.Equal(t, "24°C, Partly Cloudy", transcript[3].Content)
	require.Equal(t, agent.RoleAssistant, transcript[4].Role)
}

func TestSendMessage_TwoParallelToolCallsPreserveOrder(t *testing.T) {
	chat := &scriptedChat{responses: []agent.Message{
		{
			Role: agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{
				{ID: "c1", Name: "get_weather", Arguments: map[string]any{"location": "Tokyo"}},
				{ID: "c2", Name: "get_weather", Arguments: map[string]any{"location": "Paris"}},
			},
		},
		{Role: agent.RoleAssistant, Content: "Tokyo: 28°C, Clear. Paris: 20°C, Cloudy."},
	}}

	registry := tooling.NewRegistry(nil)
	call := 0
	responses := []string{"28°C, Clear", "20°C, Cloudy"}
	registry.Register(tooling.NewFuncExecutor("get_weather", "", nil,
		func(context.Context, map[string]any) (string, error) {
			out := responses[call]
			call++
			return out, nil
		}))

	a, err := agentloop.New("system prompt", registry, chat, chatapi.DefaultDecodingConfig(), nil, nil)
	require.NoError(t, err)

	final, err := a.SendMessage(context.Background(), "weather please", nil)
	require.NoError(t, err)
	require.Equal(t, "Tokyo: 28°C, Clear. Paris: 20°C, Cloudy.", final.Content)

	transcript := a.Transcript()
	var toolMessages []agent.Message
	for _, m := range transcript {
		if m.Role == agent.RoleTool {
			toolMessages = append(toolMessages, m)
		}
	}
	require.Len(t, toolMessages, 2)
	require.Equal(t, "c1", toolMessages[0].ToolCallID)
	require.Equal(t, "c2", toolMessages[1].ToolCallID)
}

func TestSendMessage_AccessDeniedNeverCallsExecutor(t *testing.T) {
	chat := &scriptedChat{responses: []agent.Message{
		{
			Role: agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{{ID: "c1", Name: "mock_tool"}},
		},
	}}

	registry := tooling.NewRegistry(nil)
	called := false
	registry.Register(tooling.NewFuncExecutor("mock_tool", "", nil,
		func(context.Context, map[string]any) (string, error) {
			called = true
			return "should not run", nil
		}))
	registry.Register(tooling.NewFuncExecutor("get_weather", "", nil,
		func(context.Context, map[string]any) (string, error) { return "ok", nil }))

	a, err := agentloop.New("system prompt", registry, chat, chatapi.DefaultDecodingConfig(), []string{"get_weather"}, nil)
	require.NoError(t, err)

	_, err = a.SendMessage(context.Background(), "do something", nil)
	require.ErrorIs(t, err, agentloop.ErrAccessDenied)
	require.False(t, called)
}

func TestSendMessage_RunawayLoopStopsAtRoundBoundAndBalancesTranscript(t *testing.T) {
	responses := make([]agent.Message, 0, agentloop.MaxRounds+2)
	for i := 0; i < agentloop.MaxRounds+1; i++ {
		responses = append(responses, agent.Message{
			Role:      agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{{ID: "fixed", Name: "get_weather"}},
		})
	}
	chat := &scriptedChat{responses: responses}
	registry := newWeatherRegistry("ok")

	a, err := agentloop.New("system prompt", registry, chat, chatapi.DefaultDecodingConfig(), nil, nil)
	require.NoError(t, err)

	_, err = a.SendMessage(context.Background(), "loop forever", nil)
	require.ErrorIs(t, err, agentloop.ErrRunawayLoop)

	transcript := a.Transcript()
	assistantToolCallIDs := map[string]bool{}
	repliedToolCallIDs := map[string]bool{}
	for _, m := range transcript {
		if m.Role == agent.RoleAssistant {
			for _, call := range m.ToolCalls {
				assistantToolCallIDs[call.ID] = true
			}
		}
		if m.Role == agent.RoleTool {
			repliedToolCallIDs[m.ToolCallID] = true
		}
	}
	for id := range assistantToolCallIDs {
		require.True(t, repliedToolCallIDs[id], "tool call %s left unanswered", id)
	}
}

func TestNew_RejectsUnknownAllowedToolName(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	chat := &scriptedChat{}

	_, err := agentloop.New("system", registry, chat, chatapi.DefaultDecodingConfig(), []string{"does_not_exist"}, nil)
	require.ErrorIs(t, err, agent.ErrInvalidArgument)
}

func TestSendMessage_RepeatedCallsNeverAccumulateSystemMessages(t *testing.T) {
	chat := &scriptedChat{responses: []agent.Message{
		{Role: agent.RoleAssistant, Content: "first"},
		{Role: agent.RoleAssistant, Content: "second"},
	}}
	registry := tooling.NewRegistry(nil)

	a, err := agentloop.New("system prompt", registry, chat, chatapi.DefaultDecodingConfig(), nil, nil)
	require.NoError(t, err)

	_, err = a.SendMessage(context.Background(), "one", nil)
	require.NoError(t, err)
	_, err = a.SendMessage(context.Background(), "two", nil)
	require.NoError(t, err)

	systemCount := 0
	for i, m := range a.Transcript() {
		if m.Role == agent.RoleSystem {
			systemCount++
			require.Equal(t, 0, i)
		}
	}
	require.Equal(t, 1, systemCount)
}
