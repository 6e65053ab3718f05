// Package chatapi implements the OpenAI-compatible chat completions client
// (spec §4.7, §6.1): a single chat() operation with decoding parameters
// flattened into the request body, optional tool declarations, and a
// no-retries-at-this-layer contract.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relaykit/agentmcp/agent"
)

const (
	defaultBaseURL  = "https://api.deepseek.com"
	defaultEndpoint = "/chat/completions"
	defaultTimeout  = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client posts chat completion requests to an OpenAI-compatible endpoint.
type Client struct {
	apiKey      string
	endpointURL string
	httpClient  *http.Client
}

// New validates cfg and constructs a Client.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	endpointURL := strings.TrimRight(baseURL, "/") + defaultEndpoint

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{apiKey: apiKey, endpointURL: endpointURL, httpClient: httpClient}, nil
}

// Chat sends messages and, if non-empty, the tool catalogue, using decoding
// (or DefaultDecodingConfig() if nil), and returns the assistant's reply.
// decoding is validated on every call, not only at construction, since a
// caller-supplied override might be invalid.
func (c *Client) Chat(ctx context.Context, messages []agent.Message, tools []agent.ToolDefinition, decoding *DecodingConfig) (agent.Message, error) {
	cfg := DefaultDecodingConfig()
	if decoding != nil {
		cfg = *decoding
	}
	if err := cfg.Validate(); err != nil {
		return agent.Message{}, err
	}

	requestPayload, err := buildRequest(cfg, messages, tools)
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat api request: %w", err)
	}

	encoded, err := json.Marshal(requestPayload)
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat api request encode: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat api request build: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat api request execute: %w", err)
	}
	defer response.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, 2<<20))
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat api response read: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return agent.Message{}, newUpstreamError(response.StatusCode, bodyBytes)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return agent.Message{}, fmt.Errorf("%w: response decode: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return agent.Message{}, fmt.Errorf("%w: response has no choices", ErrUpstream)
	}

	return toAgentMessage(parsed.Choices[0].Message)
}
