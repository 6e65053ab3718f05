// Package config loads runtime configuration for the CLI layer (spec §6.4):
// the chat provider's API key and base URL, the MCP server configuration
// file path, and MCP stderr log verbosity. None of this is read by the
// core packages themselves — agent, chatapi, mcp, tooling, and agentloop
// all take their configuration as constructor arguments.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/relaykit/agentmcp/mcp"
)

const (
	defaultProviderBaseURL = "https://api.deepseek.com"
	defaultProviderModel   = "deepseek-chat"
	defaultLogLevel        = slog.LevelInfo
)

// LogFormat selects the slog handler cmd/agentmcp builds.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config controls how cmd/agentmcp wires the core packages together.
type Config struct {
	ProviderAPIKey  string
	ProviderModel   string
	ProviderBaseURL string

	MCPConfigPath string
	MCPLogLevel   mcp.LogLevel

	LogLevel  slog.Level
	LogFormat LogFormat
}

// Default returns the baseline configuration before environment overrides.
func Default() Config {
	return Config{
		ProviderModel:   defaultProviderModel,
		ProviderBaseURL: defaultProviderBaseURL,
		MCPLogLevel:     mcp.LogLevelInfo,
		LogLevel:        defaultLogLevel,
		LogFormat:       LogFormatText,
	}
}

// Load reads configuration from environment variables, applying it on top
// of Default().
func Load() (Config, error) {
	cfg := Default()

	if key := strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")); key != "" {
		cfg.ProviderAPIKey = key
	}
	if model := strings.TrimSpace(os.Getenv("AGENTMCP_MODEL")); model != "" {
		cfg.ProviderModel = model
	}
	if baseURL := strings.TrimSpace(os.Getenv("AGENTMCP_BASE_URL")); baseURL != "" {
		cfg.ProviderBaseURL = baseURL
	}
	if path := strings.TrimSpace(os.Getenv("AGENTMCP_MCP_CONFIG")); path != "" {
		cfg.MCPConfigPath = path
	}
	if level := strings.TrimSpace(os.Getenv("AGENTMCP_LOG_LEVEL")); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = parsed
	}
	if format := strings.TrimSpace(os.Getenv("AGENTMCP_LOG_FORMAT")); format != "" {
		parsed, err := parseLogFormat(format)
		if err != nil {
			return Config{}, err
		}
		cfg.LogFormat = parsed
	}

	// MCP_LOG_LEVEL/MCP_DEBUG/MCP_VERBOSE (spec §6.4) belong to the mcp
	// package's own env surface, not this CLI config.
	cfg.MCPLogLevel = mcp.LogLevelFromEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether cfg is well-formed enough to boot the CLI.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProviderAPIKey) == "" {
		return errors.New("validate config: DEEPSEEK_API_KEY is required")
	}
	if strings.TrimSpace(c.ProviderModel) == "" {
		return errors.New("validate config: provider model is required")
	}
	if strings.TrimSpace(c.ProviderBaseURL) == "" {
		return errors.New("validate config: provider base url is required")
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("validate config: unsupported log format %q (allowed: %q, %q)", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	switch c.LogLevel {
	case slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError:
	default:
		return fmt.Errorf("validate config: unsupported log level %q", c.LogLevel.String())
	}
	return nil
}

func parseLogLevel(input string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("parse AGENTMCP_LOG_LEVEL: unsupported value %q", input)
	}
}

func parseLogFormat(input string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("parse AGENTMCP_LOG_FORMAT: unsupported value %q", input)
	}
}

// LoadMCPServers reads and parses cfg.MCPConfigPath, or returns an empty map
// when no path was configured.
func LoadMCPServers(cfg Config) (map[string]mcp.ServerConfig, error) {
	if strings.TrimSpace(cfg.MCPConfigPath) == "" {
		return map[string]mcp.ServerConfig{}, nil
	}
	data, err := os.ReadFile(cfg.MCPConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read mcp config %q: %w", cfg.MCPConfigPath, err)
	}
	return mcp.ParseServerConfigDocument(data)
}
