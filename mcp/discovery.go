package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relaykit/agentmcp/agent"
)

// discoverTools tries "tools/list" first, then each fallback method in
// order, stopping at the first one that returns a non-empty tool list
// (spec §4.2). Servers speaking non-standard MCP dialects still get
// discovered this way.
func (c *Client) discoverTools(ctx context.Context) ([]agent.ToolDefinition, error) {
	tools, err := c.tryListTools(ctx, "tools/list")
	if err == nil && len(tools) > 0 {
		return tools, nil
	}
	firstErr := err

	for _, method := range fallbackToolListMethods {
		tools, err := c.tryListTools(ctx, method)
		if err == nil && len(tools) > 0 {
			return tools, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscoveryFailed, firstErr)
	}
	return nil, fmt.Errorf("%w: server reported zero tools on every method", ErrDiscoveryFailed)
}

func (c *Client) tryListTools(ctx context.Context, method string) ([]agent.ToolDefinition, error) {
	stdin := c.currentStdin()
	if stdin == nil {
		return nil, ErrNotReady
	}

	id, ch := c.registerPending()
	req := jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: map[string]any{}}
	if err := c.writeRequest(stdin, req); err != nil {
		c.removePending(id)
		return nil, fmt.Errorf("%s: write request: %w", method, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, ErrDisposed
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.Error)
		}
		return parseToolList(resp.Result)
	case <-timeoutCtx.Done():
		c.removePending(id)
		return nil, fmt.Errorf("%s: %w", method, ErrTimeout)
	}
}

func parseToolList(raw json.RawMessage) ([]agent.ToolDefinition, error) {
	var result struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tool list result: %w", err)
	}

	out := make([]agent.ToolDefinition, 0, len(result.Tools))
	for _, t := range result.Tools {
		out = append(out, agent.ToolDefinition{
			Name:            t.Name,
			Description:     t.Description,
			ParameterSchema: t.InputSchema,
		})
	}
	return out, nil
}

// decodeCallResult extracts a tool call's text output from a tools/call
// response (spec §4.2): concatenate every content item of type "text" with
// "\n", or fall back to the raw stringified result when the shape doesn't
// match or carries no text content.
func decodeCallResult(resp *jsonrpcResponse, name string) (string, error) {
	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrToolFailure, resp.Error.Message)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Result, &raw); err != nil {
		return string(resp.Result), nil
	}

	if isErr, _ := raw["isError"].(bool); isErr {
		return "", fmt.Errorf("%w: tool %q reported an error", ErrToolFailure, name)
	}

	contentItems, ok := raw["content"].([]any)
	if !ok {
		return string(resp.Result), nil
	}

	var texts []string
	for _, item := range contentItems {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if itemType, _ := itemMap["type"].(string); itemType == "text" {
			if text, ok := itemMap["text"].(string); ok {
				texts = append(texts, text)
			}
		}
	}
	if len(texts) == 0 {
		return string(resp.Result), nil
	}

	joined := texts[0]
	for _, t := range texts[1:] {
		joined += "\n" + t
	}
	return joined, nil
}
