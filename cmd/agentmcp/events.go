package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/relaykit/agentmcp/agent"
)

// consoleEventSink writes tool-call and round-bound activity to stderr so a
// user watching the REPL can see what the model is doing between the prompt
// and the final reply, mirroring the event stream a chat server would push.
type consoleEventSink struct {
	out    io.Writer
	logger *slog.Logger
}

func newConsoleEventSink(out io.Writer, logger *slog.Logger) *consoleEventSink {
	return &consoleEventSink{out: out, logger: logger}
}

func (s *consoleEventSink) Publish(_ context.Context, event agent.Event) error {
	switch event.Type {
	case agent.EventTypeAssistantMessage:
		if event.Message != nil && len(event.Message.ToolCalls) > 0 {
			for _, call := range event.Message.ToolCalls {
				fmt.Fprintf(s.out, "  -> calling %s\n", call.Name)
			}
		}
	case agent.EventTypeToolResult:
		if event.ToolResult != nil && event.ToolResult.IsError {
			s.logger.Warn("tool call failed", "tool", event.ToolResult.Name, "reason", event.ToolResult.FailureReason)
		}
	case agent.EventTypeRunawayLoop:
		s.logger.Error("conversation aborted: round bound exceeded", "conv_id", event.ConvID)
	}
	return nil
}

var _ agent.EventSink = (*consoleEventSink)(nil)
