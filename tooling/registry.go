package tooling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/relaykit/agentmcp/agent"
	"github.com/relaykit/agentmcp/mcp"
)

// ErrAlreadyInitialized is returned by a second call to InitFromMCPConfig on
// the same Registry.
var ErrAlreadyInitialized = errors.New("tooling registry: already initialized from mcp config")

// acquiredServer pairs the config a server was acquired under with the
// specific client instance the manager returned, so Shutdown can release
// the exact client it holds rather than whatever the manager currently
// considers current for that config.
type acquiredServer struct {
	config mcp.ServerConfig
	client *mcp.Client
}

// ToolCatalog is the read/execute surface both Registry and Filtered
// implement, so an agentloop.Agent can hold either interchangeably (spec
// §4.6).
type ToolCatalog interface {
	ListTools() []agent.ToolDefinition
	Find(name string) (Executor, bool)
	Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error)
}

// Registry owns the full population of executors available in a process:
// in-process FuncExecutors registered directly, plus one MCPExecutor per
// tool discovered from each configured MCP server (spec §4.5).
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	logger    *slog.Logger

	initialized bool
	manager     *mcp.Manager
	acquired    []acquiredServer
}

// NewRegistry constructs an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		executors: make(map[string]Executor),
		logger:    logger,
	}
}

// Register adds or replaces the executor for its own name. A name collision
// is resolved last-writer-wins with a warning log, never an error: callers
// that build a registry from multiple sources (in-process tools plus
// several MCP servers) should not have startup fail over a naming clash.
func (r *Registry) Register(executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := executor.Name()
	if _, exists := r.executors[name]; exists {
		r.logger.Warn("tooling registry: duplicate tool name, keeping most recent registration", "tool", name)
	}
	r.executors[name] = executor
}

// ListTools returns every registered tool's spec, sorted by name for a
// stable prompt-building order.
func (r *Registry) ListTools() []agent.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]agent.ToolDefinition, 0, len(r.executors))
	for _, executor := range r.executors {
		out = append(out, executor.AsToolSpec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find looks up the executor for a tool name.
func (r *Registry) Find(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[name]
	return executor, ok
}

// Execute dispatches call to its executor, or synthesizes an
// unknown-tool failure result when no executor is registered under that
// name. It never returns a non-nil error for a routine unknown-tool or
// executor failure; those become IsError ToolResults so the loop can feed
// them back to the model.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	executor, ok := r.Find(call.Name)
	if !ok {
		return agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonUnknownTool,
			fmt.Errorf("no executor registered for %q", call.Name)), nil
	}
	return executor.Execute(ctx, call)
}

// InitFromMCPConfig acquires a client for each configured MCP server through
// manager and registers one MCPExecutor per discovered tool. It is
// idempotent-guarded: a second call fails with ErrAlreadyInitialized rather
// than silently re-running, so a caller cannot double-acquire servers by
// mistake. A server that fails to spawn or discover tools is logged and
// skipped, never aborting the rest of the population.
func (r *Registry) InitFromMCPConfig(ctx context.Context, manager *mcp.Manager, servers map[string]mcp.ServerConfig) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}
	r.initialized = true
	r.manager = manager
	r.mu.Unlock()

	for name, cfg := range servers {
		client, err := manager.Acquire(ctx, cfg)
		if err != nil {
			r.logger.Error("tooling registry: mcp server unavailable", "server", name, "error", err)
			continue
		}
		r.mu.Lock()
		r.acquired = append(r.acquired, acquiredServer{config: cfg, client: client})
		r.mu.Unlock()

		for _, executor := range ExecutorsForMCPClient(client) {
			r.Register(executor)
		}
	}
	return nil
}

// Shutdown releases this registry's reference to every acquired MCP server.
// Safe to call on a registry that never initialized any MCP servers.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	manager := r.manager
	acquired := r.acquired
	r.mu.Unlock()

	if manager == nil {
		return
	}
	for _, a := range acquired {
		manager.Release(a.config, a.client)
	}
}

var _ ToolCatalog = (*Registry)(nil)
