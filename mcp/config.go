package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ServerConfig describes how to spawn one MCP server subprocess.
type ServerConfig struct {
	Command          string
	Args             []string
	Env              map[string]string
	WorkingDirectory string
}

// CanonicalKey is the deterministic string the Manager uses to deduplicate
// subprocesses: the tuple (command, space-joined args, pipe-joined "K=V"
// env in sorted order, working directory).
func (c ServerConfig) CanonicalKey() string {
	envPairs := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		envPairs = append(envPairs, k+"="+v)
	}
	sort.Strings(envPairs)
	return strings.Join([]string{
		c.Command,
		strings.Join(c.Args, " "),
		strings.Join(envPairs, "|"),
		c.WorkingDirectory,
	}, "\x1f")
}

// serverConfigDocument mirrors the on-disk JSON shape:
//
//	{"mcpServers": {"<name>": {"command": "...", "args": [...], "env": {...}, "workingDirectory": "..."}}}
type serverConfigDocument struct {
	MCPServers map[string]serverConfigJSON `json:"mcpServers"`
}

type serverConfigJSON struct {
	Command          string            `json:"command"`
	Args             []string          `json:"args"`
	Env              map[string]string `json:"env"`
	WorkingDirectory string            `json:"workingDirectory"`
}

// ParseServerConfigDocument parses the MCP server configuration document
// (spec §6.3). Unknown fields are ignored; env defaults to empty; args
// defaults to an empty sequence.
func ParseServerConfigDocument(data []byte) (map[string]ServerConfig, error) {
	var doc serverConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mcp server config document: %w", err)
	}

	out := make(map[string]ServerConfig, len(doc.MCPServers))
	for name, raw := range doc.MCPServers {
		if strings.TrimSpace(raw.Command) == "" {
			return nil, fmt.Errorf("parse mcp server config document: server %q missing command", name)
		}
		cfg := ServerConfig{
			Command:          raw.Command,
			Args:             raw.Args,
			Env:              raw.Env,
			WorkingDirectory: raw.WorkingDirectory,
		}
		if cfg.Env == nil {
			cfg.Env = map[string]string{}
		}
		out[name] = cfg
	}
	return out, nil
}
