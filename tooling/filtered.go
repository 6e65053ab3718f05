package tooling

import (
	"context"
	"fmt"

	"github.com/relaykit/agentmcp/agent"
)

// Filtered is a composable allow-list view over a ToolCatalog: it presents
// only the named subset of the source's tools without copying anything out
// of it (spec §4.6). Registering a new tool on the source registry is
// immediately visible through every Filtered view built over it, subject to
// the allow-list.
type Filtered struct {
	source  ToolCatalog
	allowed map[string]struct{}
}

// NewFiltered builds a Filtered view over source restricted to allowedNames.
// allowedNames == nil means no restriction at all: the view is the identity
// over source. A non-nil but empty allowedNames means no tool is visible.
func NewFiltered(source ToolCatalog, allowedNames []string) *Filtered {
	if allowedNames == nil {
		return &Filtered{source: source, allowed: nil}
	}
	allowed := make(map[string]struct{}, len(allowedNames))
	for _, name := range allowedNames {
		allowed[name] = struct{}{}
	}
	return &Filtered{source: source, allowed: allowed}
}

// ListTools returns only the source's tools whose name is in the allow-list,
// or every tool when the view is unrestricted.
func (f *Filtered) ListTools() []agent.ToolDefinition {
	all := f.source.ListTools()
	if f.allowed == nil {
		return all
	}
	out := make([]agent.ToolDefinition, 0, len(all))
	for _, spec := range all {
		if _, ok := f.allowed[spec.Name]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// Find returns the source's executor for name, or false if name is not in
// the allow-list, even when the source registry actually has it.
func (f *Filtered) Find(name string) (Executor, bool) {
	if f.allowed == nil {
		return f.source.Find(name)
	}
	if _, ok := f.allowed[name]; !ok {
		return nil, false
	}
	return f.source.Find(name)
}

// Execute denies any call for a name outside the allow-list with an
// access-denied ToolResult, otherwise delegates to the source.
func (f *Filtered) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	if f.allowed == nil {
		return f.source.Execute(ctx, call)
	}
	if _, ok := f.allowed[call.Name]; !ok {
		return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonAccessDenied,
			fmt.Errorf("tool %q is not in the allowed set", call.Name)), nil
	}
	return f.source.Execute(ctx, call)
}

var _ ToolCatalog = (*Filtered)(nil)
