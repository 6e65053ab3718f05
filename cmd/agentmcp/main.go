// Command agentmcp is a thin REPL wiring the chat client, MCP server
// manager, tool registry, and agent loop into a runnable session. None of
// this wiring is exercised by the core packages' own tests; it exists only
// to make the module runnable end to end.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relaykit/agentmcp/agentloop"
	"github.com/relaykit/agentmcp/chatapi"
	"github.com/relaykit/agentmcp/config"
	"github.com/relaykit/agentmcp/mcp"
	"github.com/relaykit/agentmcp/tooling"
)

const defaultSystemPrompt = "You are a helpful assistant with access to tools. Use them when they help answer the user."

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(stderr, cfg)

	servers, err := config.LoadMCPServers(cfg)
	if err != nil {
		return fmt.Errorf("load mcp servers: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := mcp.NewManager(logger)
	defer manager.ShutdownAll()

	registry := tooling.NewRegistry(logger)
	registry.Register(tooling.NewWeatherExecutor())
	if err := registry.InitFromMCPConfig(sigCtx, manager, servers); err != nil {
		return fmt.Errorf("init mcp tools: %w", err)
	}
	defer registry.Shutdown()

	chatClient, err := chatapi.New(chatapi.Config{
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
	})
	if err != nil {
		return fmt.Errorf("new chat client: %w", err)
	}
	completer := chatapi.WithRetry(chatClient, chatapi.RetryConfig{MaxAttempts: 3})

	decoding := chatapi.DefaultDecodingConfig()
	decoding.Model = cfg.ProviderModel

	sink := newConsoleEventSink(stderr, logger)

	convAgent, err := agentloop.New(defaultSystemPrompt, registry, completer, decoding, nil, sink)
	if err != nil {
		return fmt.Errorf("new agent: %w", err)
	}

	return repl(sigCtx, convAgent, stdin, stdout, logger)
}

func repl(ctx context.Context, a *agentloop.Agent, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	fmt.Fprintln(stdout, "agentmcp ready. type a message, or /quit to exit.")
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if line == "/reset" {
			a.ClearConversation()
			fmt.Fprintln(stdout, "conversation cleared.")
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		reply, err := a.SendMessage(turnCtx, line, nil)
		cancel()
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			logger.Error("turn failed", "error", err)
			continue
		}
		fmt.Fprintln(stdout, reply.Content)
	}
}
