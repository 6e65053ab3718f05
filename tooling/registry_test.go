package tooling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaykit/agentmcp/agent"
	"github.com/relaykit/agentmcp/mcp"
	"github.com/relaykit/agentmcp/tooling"
)

func TestRegistry_ExecuteUnknownToolReturnsErrorResult(t *testing.T) {
	registry := tooling.NewRegistry(nil)

	result, err := registry.Execute(context.Background(), agent.ToolCall{ID: "call-1", Name: "missing"})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, agent.ToolFailureReasonUnknownTool, result.FailureReason)
}

func TestRegistry_RegisterAndExecuteFuncExecutor(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	registry.Register(tooling.NewWeatherExecutor())

	tools := registry.ListTools()
	require.Len(t, tools, 1)
	require.Equal(t, "get_weather", tools[0].Name)

	result, err := registry.Execute(context.Background(), agent.ToolCall{
		ID:        "call-1",
		Name:      "get_weather",
		Arguments: map[string]any{"location": "Portland, OR"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, result.Content, "Portland, OR")
}

func TestRegistry_RegisterOverwritesDuplicateName(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	first := tooling.NewFuncExecutor("dup", "first", nil, func(context.Context, map[string]any) (string, error) {
		return "first", nil
	})
	second := tooling.NewFuncExecutor("dup", "second", nil, func(context.Context, map[string]any) (string, error) {
		return "second", nil
	})
	registry.Register(first)
	registry.Register(second)

	result, err := registry.Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "dup"})
	require.NoError(t, err)
	require.Equal(t, "second", result.Content)
}

func TestRegistry_InitFromMCPConfigFailsOnSecondCall(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	manager := mcp.NewManager(nil)

	err := registry.InitFromMCPConfig(context.Background(), manager, map[string]mcp.ServerConfig{})
	require.NoError(t, err)

	err = registry.InitFromMCPConfig(context.Background(), manager, map[string]mcp.ServerConfig{})
	require.ErrorIs(t, err, tooling.ErrAlreadyInitialized)
}

func TestFiltered_HidesToolsOutsideAllowList(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	registry.Register(tooling.NewWeatherExecutor())
	registry.Register(tooling.NewFuncExecutor("delete_everything", "dangerous", nil,
		func(context.Context, map[string]any) (string, error) { return "done", nil }))

	filtered := tooling.NewFiltered(registry, []string{"get_weather"})

	tools := filtered.ListTools()
	require.Len(t, tools, 1)
	require.Equal(t, "get_weather", tools[0].Name)

	_, ok := filtered.Find("delete_everything")
	require.False(t, ok)

	result, err := filtered.Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "delete_everything"})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, agent.ToolFailureReasonAccessDenied, result.FailureReason)
}

func TestFiltered_NilAllowedNamesIsIdentityOverSource(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	registry.Register(tooling.NewWeatherExecutor())

	filtered := tooling.NewFiltered(registry, nil)

	tools := filtered.ListTools()
	require.Len(t, tools, 1)
	require.Equal(t, "get_weather", tools[0].Name)

	_, ok := filtered.Find("get_weather")
	require.True(t, ok)

	result, err := filtered.Execute(context.Background(), agent.ToolCall{
		ID: "c1", Name: "get_weather", Arguments: map[string]any{"location": "Reno, NV"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
}

func TestFiltered_EmptyAllowedNamesDeniesAllTools(t *testing.T) {
	registry := tooling.NewRegistry(nil)
	registry.Register(tooling.NewWeatherExecutor())

	filtered := tooling.NewFiltered(registry, []string{})

	require.Empty(t, filtered.ListTools())

	_, ok := filtered.Find("get_weather")
	require.False(t, ok)
}
