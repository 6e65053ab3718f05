// Package tooling implements the uniform tool-execution surface (spec §4.4,
// §4.5, §4.6): a single Executor interface over both in-process functions
// and MCP-backed tools, a Registry that owns the population, and a Filtered
// view that restricts a caller to an allow-list without copying anything.
package tooling

import (
	"context"

	"github.com/relaykit/agentmcp/agent"
)

// Executor is the uniform surface every tool implements, whether it runs
// in-process or is backed by an MCP server subprocess.
type Executor interface {
	Name() string
	Description() string
	ParameterSchema() map[string]any
	CanHandle(name string) bool
	Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error)
	AsToolSpec() agent.ToolDefinition
}

// Handler executes one in-process tool call using parsed JSON arguments and
// returns the text content to report back to the model.
type Handler func(ctx context.Context, arguments map[string]any) (string, error)

// FuncExecutor adapts a plain Handler function into an Executor, the shape
// every hand-written in-process tool takes.
type FuncExecutor struct {
	name        string
	description string
	schema      map[string]any
	handler     Handler
}

// NewFuncExecutor constructs an in-process Executor from name, description,
// a JSON Schema for its parameters, and the function that runs it.
func NewFuncExecutor(name, description string, schema map[string]any, handler Handler) *FuncExecutor {
	return &FuncExecutor{name: name, description: description, schema: schema, handler: handler}
}

func (e *FuncExecutor) Name() string                   { return e.name }
func (e *FuncExecutor) Description() string             { return e.description }
func (e *FuncExecutor) ParameterSchema() map[string]any { return e.schema }
func (e *FuncExecutor) CanHandle(name string) bool      { return name == e.name }

func (e *FuncExecutor) AsToolSpec() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:            e.name,
		Description:     e.description,
		ParameterSchema: e.schema,
	}
}

func (e *FuncExecutor) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.ToolResult{}, ctxErr
	}
	if err := agent.ValidateToolCallArguments(call, e.AsToolSpec()); err != nil {
		return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonInvalidArguments, err), nil
	}

	content, err := e.handler(ctx, call.Arguments)
	if err != nil {
		return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonExecutorError, err), nil
	}

	return agent.ToolResult{CallID: call.ID, Name: call.Name, Content: content}, nil
}

var _ Executor = (*FuncExecutor)(nil)
