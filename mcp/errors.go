package mcp

import "errors"

var (
	// ErrAlreadyInitialized is returned by a second call to Client.Initialize.
	ErrAlreadyInitialized = errors.New("mcp client already initialized")
	// ErrNotReady is returned by any operation other than Initialize when the
	// client has not reached the ready state.
	ErrNotReady = errors.New("mcp client is not ready")
	// ErrDisposed is returned by operations against a disposed client, and
	// used to fail any request still pending when dispose runs.
	ErrDisposed = errors.New("mcp client was disposed")
	// ErrSpawnFailed wraps a subprocess start failure.
	ErrSpawnFailed = errors.New("mcp server process failed to start")
	// ErrDiscoveryFailed is returned when tools/list and every fallback
	// method fail or return no tools.
	ErrDiscoveryFailed = errors.New("mcp tool discovery failed")
	// ErrTimeout is returned when a call does not receive a response within
	// its timeout.
	ErrTimeout = errors.New("mcp call timed out")
	// ErrToolFailure wraps a JSON-RPC error response or isError:true result.
	ErrToolFailure = errors.New("mcp tool call failed")
	// ErrUnknownTool names the case of a tool the client never discovered.
	// Client.Execute does not check the name against the discovered
	// catalogue and does not return this error.
	ErrUnknownTool = errors.New("mcp tool not discovered")
)
