// Package mcp implements the client half of the Model Context Protocol: a
// long-lived subprocess wrapper that speaks JSON-RPC 2.0 over line-delimited
// stdio, discovers tools, multiplexes concurrent requests by correlation id,
// and enforces per-request timeouts (spec §4.2). Package mcp also provides
// the process-wide server manager that deduplicates subprocesses by
// canonical configuration key (spec §4.3).
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/relaykit/agentmcp/agent"
)

type clientState int32

const (
	clientStateNew clientState = iota
	clientStateInitializing
	clientStateReady
	clientStateDisposed
)

const (
	settleInterval       = 500 * time.Millisecond
	discoveryTimeout     = 3 * time.Second
	defaultExecuteTimeout = 30 * time.Second
	disposeGrace         = 2 * time.Second
)

var fallbackToolListMethods = []string{"list_tools", "tools.list", "get_tools", "tools/get"}

// ClientOption configures optional Client behavior.
type ClientOption func(*Client)

// WithLogger overrides the client's default logger (slog.Default()).
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLogLevel overrides the MCP_LOG_LEVEL-derived stderr verbosity.
func WithLogLevel(level LogLevel) ClientOption {
	return func(c *Client) { c.verbosity = level }
}

// Client owns one MCP server subprocess across its new -> initializing ->
// ready -> disposed lifecycle (spec §3). All exported methods are safe for
// concurrent use.
type Client struct {
	mu    sync.Mutex
	state clientState

	config ServerConfig
	logger *slog.Logger
	verbosity LogLevel

	cmd   *exec.Cmd
	stdin io.WriteCloser

	// writeMu serializes every write to stdin. A request line can exceed
	// the pipe's atomic-write threshold, so without this two concurrent
	// Execute calls can interleave partial writes and corrupt the framing
	// for both in-flight requests.
	writeMu sync.Mutex

	nextID  int64
	pending map[int64]chan *jsonrpcResponse

	tools       []agent.ToolDefinition
	readerDown  bool

	wg conc.WaitGroup
}

// NewClient constructs a Client in the "new" state. Initialize must be
// called before any other operation.
func NewClient(config ServerConfig, opts ...ClientOption) *Client {
	c := &Client{
		config:    config,
		logger:    slog.Default(),
		verbosity: LogLevelFromEnv(),
		pending:   make(map[int64]chan *jsonrpcResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the server configuration this client was constructed with.
func (c *Client) Config() ServerConfig {
	return c.config
}

// Initialize spawns the subprocess, waits a settle interval, and performs
// tool discovery. It fails if the process cannot spawn, discovery fails on
// every method, or the client was already initialized once. On discovery
// failure the client is left un-initialized; the caller must call Dispose.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != clientStateNew {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.state = clientStateInitializing
	c.mu.Unlock()

	if err := c.spawnOnly(); err != nil {
		return err
	}

	select {
	case <-time.After(settleInterval):
	case <-ctx.Done():
		return ctx.Err()
	}

	tools, err := c.discoverTools(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tools = tools
	c.state = clientStateReady
	c.mu.Unlock()

	c.logger.Info("mcp client ready", "command", c.config.Command, "tool_count", len(tools))
	return nil
}

// spawnOnly starts the subprocess and its reader/stderr tasks without
// performing discovery, split out of Initialize so tests can exercise the
// pending-call and dispose machinery without waiting on a real handshake.
func (c *Client) spawnOnly() error {
	cmd := exec.Command(c.config.Command, c.config.Args...)
	if c.config.WorkingDirectory != "" {
		cmd.Dir = c.config.WorkingDirectory
	}
	if len(c.config.Env) > 0 {
		env := os.Environ()
		for k, v := range c.config.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	c.mu.Unlock()

	c.wg.Go(func() { c.readLoop(stdout) })
	c.wg.Go(func() { c.forwardStderr(stderr) })
	return nil
}

// Tools returns the immutable, cached tool catalogue discovered during
// Initialize.
func (c *Client) Tools() []agent.ToolDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return agent.CloneToolDefinitions(c.tools)
}

// IsHealthy reports whether the client is ready, its stdout reader is
// still running, and its cached tool list is non-empty: the cheap health
// check the Server Manager relies on (spec §4.3).
func (c *Client) IsHealthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == clientStateReady && !c.readerDown && len(c.tools) > 0
}

// Execute sends tools/call for name with the given JSON arguments document
// and awaits the response. timeout <= 0 uses the 30s default.
func (c *Client) Execute(ctx context.Context, name string, argumentsJSON string, timeout time.Duration) (string, error) {
	c.mu.Lock()
	if c.state != clientStateReady {
		c.mu.Unlock()
		return "", ErrNotReady
	}
	if c.readerDown {
		c.mu.Unlock()
		return "", ErrDisposed
	}
	stdin := c.stdin
	c.mu.Unlock()

	if timeout <= 0 {
		timeout = defaultExecuteTimeout
	}

	argsObj, err := decodeArguments(argumentsJSON)
	if err != nil {
		return "", err
	}

	id, ch := c.registerPending()
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "tools/call",
		Params: map[string]any{
			"name":      name,
			"arguments": argsObj,
		},
	}
	if err := c.writeRequest(stdin, req); err != nil {
		c.removePending(id)
		return "", fmt.Errorf("write tools/call request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp == nil {
			return "", ErrDisposed
		}
		return decodeCallResult(resp, name)
	case <-timeoutCtx.Done():
		c.removePending(id)
		return "", fmt.Errorf("%w: tool %q", ErrTimeout, name)
	}
}

// Dispose fails every still-pending call with ErrDisposed, kills the
// subprocess, and stops the reader/stderr tasks.
func (c *Client) Dispose() error {
	c.mu.Lock()
	if c.state == clientStateDisposed {
		c.mu.Unlock()
		return nil
	}
	c.state = clientStateDisposed
	pending := c.pending
	c.pending = nil
	cmd := c.cmd
	stdin := c.stdin
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(disposeGrace):
		c.logger.Warn("mcp client dispose: reader tasks did not exit within grace period")
	}
	if cmd != nil {
		_ = cmd.Wait()
	}
	return nil
}

func decodeArguments(argumentsJSON string) (map[string]any, error) {
	if strings.TrimSpace(argumentsJSON) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, fmt.Errorf("%w: decode tool arguments: %v", agent.ErrInvalidArgument, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func (c *Client) registerPending() (int64, chan *jsonrpcResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	ch := make(chan *jsonrpcResponse, 1)
	if c.pending == nil {
		c.pending = make(map[int64]chan *jsonrpcResponse)
	}
	c.pending[id] = ch
	return id, ch
}

func (c *Client) removePending(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		delete(c.pending, id)
	}
}

func (c *Client) currentStdin() io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stdin
}

// writeRequest serializes req onto stdin under writeMu, so concurrent
// Execute/discovery calls on the same client never interleave partial
// writes on the shared pipe.
func (c *Client) writeRequest(stdin io.Writer, req jsonrpcRequest) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeLine(stdin, req)
}

// readLoop is the single task demultiplexing stdout lines by correlation
// id (spec §4.2/§5). Non-JSON or unmatched lines are discarded silently:
// they may be stray server logs on stdout or notifications this core does
// not act on.
func (c *Client) readLoop(stdout io.ReadCloser) {
	defer stdout.Close()

	scanner := lineScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var resp jsonrpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.ID == nil {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[*resp.ID]
		if ok {
			delete(c.pending, *resp.ID)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}

		respCopy := resp
		ch <- &respCopy
	}

	c.mu.Lock()
	remaining := c.pending
	c.pending = make(map[int64]chan *jsonrpcResponse)
	c.readerDown = true
	c.mu.Unlock()

	for _, ch := range remaining {
		close(ch)
	}
}

func (c *Client) forwardStderr(stderr io.ReadCloser) {
	defer stderr.Close()

	name := c.config.Command
	scanner := lineScanner(stderr)
	for scanner.Scan() {
		forwardStderrLine(c.logger, c.verbosity, name, scanner.Text())
	}
}
