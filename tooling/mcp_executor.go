package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/relaykit/agentmcp/agent"
	"github.com/relaykit/agentmcp/mcp"
)

// mcpExecuteTimeout is the per-call timeout an MCPExecutor asks the
// underlying client to enforce (spec §4.2's 30s default).
const mcpExecuteTimeout = 30 * time.Second

// mcpClient is the subset of *mcp.Client an MCPExecutor depends on, kept
// narrow so tests can substitute a fake.
type mcpClient interface {
	Execute(ctx context.Context, name string, argumentsJSON string, timeout time.Duration) (string, error)
}

// MCPExecutor adapts one tool discovered from an MCP server into the
// Executor surface. It forwards the call's raw argument JSON over the wire,
// serializing the parsed arguments only when no raw JSON is present.
type MCPExecutor struct {
	spec   agent.ToolDefinition
	client mcpClient
}

// NewMCPExecutor builds an Executor for one tool spec backed by client.
func NewMCPExecutor(spec agent.ToolDefinition, client mcpClient) *MCPExecutor {
	return &MCPExecutor{spec: spec, client: client}
}

func (e *MCPExecutor) Name() string                   { return e.spec.Name }
func (e *MCPExecutor) Description() string             { return e.spec.Description }
func (e *MCPExecutor) ParameterSchema() map[string]any { return e.spec.ParameterSchema }
func (e *MCPExecutor) CanHandle(name string) bool      { return name == e.spec.Name }
func (e *MCPExecutor) AsToolSpec() agent.ToolDefinition { return e.spec }

func (e *MCPExecutor) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.ToolResult{}, ctxErr
	}
	if err := agent.ValidateToolCallArguments(call, e.spec); err != nil {
		return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonInvalidArguments, err), nil
	}

	argsJSON := call.RawArguments
	if argsJSON == "" {
		encoded, err := json.Marshal(call.Arguments)
		if err != nil {
			return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonInvalidArguments, err), nil
		}
		argsJSON = string(encoded)
	}

	content, err := e.client.Execute(ctx, e.spec.Name, argsJSON, mcpExecuteTimeout)
	if err != nil {
		reason := agent.ToolFailureReasonExecutorError
		if errors.Is(err, mcp.ErrTimeout) {
			reason = agent.ToolFailureReasonTimeout
		}
		return agent.NormalizedToolErrorResult(call, reason, err), nil
	}

	return agent.ToolResult{CallID: call.ID, Name: call.Name, Content: content}, nil
}

var _ Executor = (*MCPExecutor)(nil)

// mcpToolSource is the subset of *mcp.Client a registry needs to enumerate a
// server's tools when building executors for it.
type mcpToolSource interface {
	Tools() []agent.ToolDefinition
}

// ExecutorsForMCPClient builds one MCPExecutor per tool the client
// discovered.
func ExecutorsForMCPClient(client interface {
	mcpClient
	mcpToolSource
}) []Executor {
	tools := client.Tools()
	out := make([]Executor, 0, len(tools))
	for _, spec := range tools {
		out = append(out, NewMCPExecutor(spec, client))
	}
	return out
}
