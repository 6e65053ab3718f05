package agentloop

import "errors"

var (
	// ErrMissingToolCatalog is returned by New when tools is nil.
	ErrMissingToolCatalog = errors.New("agent loop: tool catalog is required")
	// ErrMissingChatClient is returned by New when chat is nil.
	ErrMissingChatClient = errors.New("agent loop: chat client is required")
	// ErrAccessDenied is returned by SendMessage when the model calls a tool
	// outside the agent's allowed set, below whatever filtering the tool
	// catalog itself already applies (defense-in-depth against a
	// hallucinated tool name).
	ErrAccessDenied = errors.New("agent loop: tool call denied by access policy")
	// ErrRunawayLoop is returned by SendMessage after the abort-cleanup
	// protocol runs, when a turn exceeds MaxRounds chat/tool rounds.
	ErrRunawayLoop = errors.New("agent loop: exceeded maximum round bound")
)
