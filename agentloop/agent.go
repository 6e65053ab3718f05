// Package agentloop implements the per-conversation driver (spec §4.8):
// transcript management, the model/tool round loop, its round bound, and
// the abort-cleanup protocol that keeps a truncated transcript well-formed.
package agentloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/relaykit/agentmcp/agent"
	"github.com/relaykit/agentmcp/chatapi"
	"github.com/relaykit/agentmcp/tooling"
)

// MaxRounds bounds the number of chat/tool rounds a single SendMessage call
// may perform.
const MaxRounds = 40

// Agent drives one conversation: it owns the transcript, holds an immutable
// system prompt, and borrows a tool catalog, chat client, and decoding
// config from its caller. Safe for concurrent use, though the spec models
// one turn as sequential; concurrent SendMessage calls on the same Agent
// serialize on an internal lock.
type Agent struct {
	mu sync.Mutex

	convID       string
	systemPrompt string
	transcript   []agent.Message

	tools  tooling.ToolCatalog
	chat   chatapi.ChatCompleter
	config chatapi.DecodingConfig

	allowed map[string]struct{}
	events  agent.EventSink
}

// New constructs an Agent. If allowedToolNames is non-nil, every name in it
// must already appear in tools.ListTools(), else construction fails with an
// invalid-argument error (spec §4.8's construction-time validation).
func New(systemPrompt string, tools tooling.ToolCatalog, chat chatapi.ChatCompleter, config chatapi.DecodingConfig, allowedToolNames []string, events agent.EventSink) (*Agent, error) {
	if tools == nil {
		return nil, ErrMissingToolCatalog
	}
	if chat == nil {
		return nil, ErrMissingChatClient
	}

	var allowed map[string]struct{}
	if allowedToolNames != nil {
		available := agent.IndexToolDefinitions(tools.ListTools())
		allowed = make(map[string]struct{}, len(allowedToolNames))
		for _, name := range allowedToolNames {
			if _, ok := available[name]; !ok {
				return nil, fmt.Errorf("%w: allowed tool %q is not in the registry", agent.ErrInvalidArgument, name)
			}
			allowed[name] = struct{}{}
		}
	}

	if events == nil {
		events = agent.NoopEventSink{}
	}

	a := &Agent{
		convID:       uuid.NewString(),
		systemPrompt: systemPrompt,
		tools:        tools,
		chat:         chat,
		config:       config,
		allowed:      allowed,
		events:       events,
	}
	a.transcript = []agent.Message{{Role: agent.RoleSystem, Content: systemPrompt}}
	return a, nil
}

// Transcript returns a deep copy of the current message sequence.
func (a *Agent) Transcript() []agent.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return agent.CloneMessages(a.transcript)
}

// ClearConversation removes every non-system message; the system-prompt
// anchor is preserved.
func (a *Agent) ClearConversation() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transcript = []agent.Message{{Role: agent.RoleSystem, Content: a.systemPrompt}}
}

// SendMessage runs the full model/tool loop for one user turn and returns
// the terminal assistant message. configOverride, if non-nil, is used for
// every chat call this turn instead of the agent's current DecodingConfig,
// without mutating it.
func (a *Agent) SendMessage(ctx context.Context, userText string, configOverride *chatapi.DecodingConfig) (agent.Message, error) {
	if ctx == nil {
		return agent.Message{}, agent.ErrContextNil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.resetSystemPromptLocked()
	a.transcript = append(a.transcript, agent.Message{Role: agent.RoleUser, Content: userText})

	cfg := a.config
	if configOverride != nil {
		cfg = *configOverride
	}

	rounds := 0
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return agent.Message{}, ctxErr
		}

		assistant, err := a.chat.Chat(ctx, agent.CloneMessages(a.transcript), a.tools.ListTools(), &cfg)
		if err != nil {
			return agent.Message{}, fmt.Errorf("agent loop: chat request: %w", err)
		}
		if assistant.Role == "" {
			assistant.Role = agent.RoleAssistant
		}
		a.transcript = append(a.transcript, agent.CloneMessage(assistant))
		a.publishLocked(ctx, agent.EventTypeAssistantMessage, &assistant, nil, rounds)

		if len(assistant.ToolCalls) == 0 {
			a.publishLocked(ctx, agent.EventTypeTurnCompleted, nil, nil, rounds)
			return assistant, nil
		}

		rounds++
		if rounds > MaxRounds {
			a.abortCleanupLocked(assistant)
			a.publishLocked(ctx, agent.EventTypeRunawayLoop, nil, nil, rounds)
			return agent.Message{}, fmt.Errorf("%w: %d rounds", ErrRunawayLoop, MaxRounds)
		}

		if err := a.validateToolAccess(assistant.ToolCalls); err != nil {
			return agent.Message{}, err
		}

		for _, call := range assistant.ToolCalls {
			result, err := a.tools.Execute(ctx, call)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return agent.Message{}, ctxErr
				}
				result = agent.NormalizedToolErrorResult(call, agent.ToolFailureReasonExecutorError, err)
			}
			a.transcript = append(a.transcript, toolReplyMessage(result))
			a.publishLocked(ctx, agent.EventTypeToolResult, nil, &result, rounds)
		}
	}
}

// resetSystemPromptLocked removes any existing role=system entries and
// inserts a single one at position 0, so repeated SendMessage calls never
// accumulate system messages even if the caller changed the prompt in
// between (the prompt itself is immutable per Agent instance here, but the
// remove-then-insert shape is what keeps the invariant robust regardless).
func (a *Agent) resetSystemPromptLocked() {
	filtered := make([]agent.Message, 0, len(a.transcript)+1)
	filtered = append(filtered, agent.Message{Role: agent.RoleSystem, Content: a.systemPrompt})
	for _, m := range a.transcript {
		if m.Role == agent.RoleSystem {
			continue
		}
		filtered = append(filtered, m)
	}
	a.transcript = filtered
}

func (a *Agent) validateToolAccess(calls []agent.ToolCall) error {
	if a.allowed == nil {
		return nil
	}
	for _, call := range calls {
		if _, ok := a.allowed[call.Name]; !ok {
			return fmt.Errorf("%w: tool %q", ErrAccessDenied, call.Name)
		}
	}
	return nil
}

// abortCleanupLocked synthesizes a role=tool reply for every still-unanswered
// tool call in the offending assistant message, then appends a role=assistant
// message explaining the abort, so the transcript remains well-formed input
// for a future turn (spec §4.8's abort-cleanup protocol).
func (a *Agent) abortCleanupLocked(offending agent.Message) {
	for _, call := range offending.ToolCalls {
		result := agent.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Tool execution failed: exceeded the %d round bound before this call could run", MaxRounds),
			IsError: true,
		}
		a.transcript = append(a.transcript, agent.ToolResultMessage(result))
	}
	a.transcript = append(a.transcript, agent.Message{
		Role:    agent.RoleAssistant,
		Content: fmt.Sprintf("Execution was terminated after exceeding the maximum of %d rounds.", MaxRounds),
	})
}

// toolReplyMessage formats a tool result into the transcript message spec
// §4.8 describes: the raw content on success, or "Tool execution failed:
// <reason>" on failure.
func toolReplyMessage(result agent.ToolResult) agent.Message {
	if result.IsError {
		result.Content = fmt.Sprintf("Tool execution failed: %s", result.Content)
	}
	return agent.ToolResultMessage(result)
}

func (a *Agent) publishLocked(ctx context.Context, typ agent.EventType, msg *agent.Message, result *agent.ToolResult, round int) {
	event := agent.NewEvent(a.convID, round, typ)
	event.Message = msg
	event.ToolResult = result
	_ = a.events.Publish(ctx, event)
}
