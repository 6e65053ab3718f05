package mcp

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// LogLevel is the MCP_LOG_LEVEL verbosity for stderr forwarding (spec §4.2,
// §6.4). It is distinct from slog.Level because "none" has no slog
// equivalent (it means "drop everything").
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// LogLevelFromEnv reads MCP_LOG_LEVEL (default "info"), with MCP_DEBUG=true
// or MCP_VERBOSE=true forcing "debug" regardless of MCP_LOG_LEVEL.
func LogLevelFromEnv() LogLevel {
	if truthy(os.Getenv("MCP_DEBUG")) || truthy(os.Getenv("MCP_VERBOSE")) {
		return LogLevelDebug
	}
	return parseLogLevel(os.Getenv("MCP_LOG_LEVEL"))
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseLogLevel(v string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return LogLevelNone
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	case "debug":
		return LogLevelDebug
	case "", "info":
		return LogLevelInfo
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) allows(level slog.Level) bool {
	switch l {
	case LogLevelNone:
		return false
	case LogLevelError:
		return level >= slog.LevelError
	case LogLevelWarn:
		return level >= slog.LevelWarn
	case LogLevelDebug:
		return true
	case LogLevelInfo:
		fallthrough
	default:
		return level >= slog.LevelInfo
	}
}

// stderrLinePattern matches "[timestamp] [LEVEL] message" lines a
// well-behaved MCP server writes to stderr for human-readable logs.
var stderrLinePattern = regexp.MustCompile(`^\[([^\]]+)\]\s*\[(\w+)\]\s*(.*)$`)

// forwardStderrLine parses one stderr line and emits it through logger at
// the corresponding level (subject to the configured verbosity), or at
// debug level verbatim if the line does not match the expected shape.
func forwardStderrLine(logger *slog.Logger, verbosity LogLevel, serverName, line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}

	matches := stderrLinePattern.FindStringSubmatch(line)
	if matches == nil {
		if verbosity.allows(slog.LevelDebug) {
			logger.Debug(line, "mcp_server", serverName)
		}
		return
	}

	timestamp, levelToken, message := matches[1], matches[2], matches[3]
	level := slogLevelFromToken(levelToken)
	if !verbosity.allows(level) {
		return
	}
	logger.Log(context.Background(), level, message, "mcp_server", serverName, "server_timestamp", timestamp)
}

func slogLevelFromToken(token string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "ERROR", "ERR", "FATAL":
		return slog.LevelError
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
