package chatapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaykit/agentmcp/agent"
)

// wireDecodingConfig is DecodingConfig's snake_case JSON shape (spec §4.9,
// §6.1). It is embedded into chatCompletionRequest so its fields flatten to
// the request's top level alongside messages and tools.
type wireDecodingConfig struct {
	Model            string   `json:"model"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	MaxTokens        int      `json:"max_tokens"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop,omitempty"`
	Logprobs         bool     `json:"logprobs"`
	TopLogprobs      *int     `json:"top_logprobs,omitempty"`
}

type chatCompletionRequest struct {
	wireDecodingConfig
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
}

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function chatToolCallFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

func buildRequest(decoding DecodingConfig, messages []agent.Message, tools []agent.ToolDefinition) (chatCompletionRequest, error) {
	wireMessages := make([]chatMessage, len(messages))
	for i := range messages {
		converted, err := toChatMessage(messages[i])
		if err != nil {
			return chatCompletionRequest{}, err
		}
		wireMessages[i] = converted
	}

	var wireTools []chatTool
	if len(tools) > 0 {
		wireTools = make([]chatTool, len(tools))
		for i := range tools {
			wireTools[i] = chatTool{
				Type: "function",
				Function: chatToolFunction{
					Name:        tools[i].Name,
					Description: tools[i].Description,
					Parameters:  tools[i].ParameterSchema,
				},
			}
		}
	}

	return chatCompletionRequest{
		wireDecodingConfig: decoding.toWire(),
		Messages:           wireMessages,
		Tools:              wireTools,
	}, nil
}

func toChatMessage(message agent.Message) (chatMessage, error) {
	role, err := toProviderRole(message.Role)
	if err != nil {
		return chatMessage{}, err
	}

	var toolCalls []chatToolCall
	if len(message.ToolCalls) > 0 {
		toolCalls = make([]chatToolCall, len(message.ToolCalls))
		for i := range message.ToolCalls {
			arguments := message.ToolCalls[i].RawArguments
			if arguments == "" {
				encoded, err := json.Marshal(message.ToolCalls[i].Arguments)
				if err != nil {
					return chatMessage{}, fmt.Errorf("encode tool call arguments: %w", err)
				}
				arguments = string(encoded)
			}
			toolCalls[i] = chatToolCall{
				ID:   message.ToolCalls[i].ID,
				Type: "function",
				Function: chatToolCallFunction{
					Name:      message.ToolCalls[i].Name,
					Arguments: arguments,
				},
			}
		}
	}

	return chatMessage{
		Role:       role,
		Content:    message.Content,
		Name:       message.Name,
		ToolCallID: message.ToolCallID,
		ToolCalls:  toolCalls,
	}, nil
}

func toProviderRole(role agent.Role) (string, error) {
	switch role {
	case agent.RoleSystem:
		return "system", nil
	case agent.RoleUser:
		return "user", nil
	case agent.RoleAssistant:
		return "assistant", nil
	case agent.RoleTool:
		return "tool", nil
	default:
		return "", fmt.Errorf("%w: unsupported message role %q", ErrInvalidConfig, role)
	}
}

// toAgentMessage decodes the provider's chosen assistant message. Role
// defaults to "assistant" when the field is empty, matching servers that
// omit it on the (already-implied) assistant reply.
func toAgentMessage(message chatMessage) (agent.Message, error) {
	role := strings.TrimSpace(message.Role)
	if role != "" && role != "assistant" {
		return agent.Message{}, fmt.Errorf("%w: expected assistant message role, got %q", ErrUpstream, role)
	}

	var toolCalls []agent.ToolCall
	if len(message.ToolCalls) > 0 {
		toolCalls = make([]agent.ToolCall, len(message.ToolCalls))
		for i := range message.ToolCalls {
			arguments := map[string]any{}
			raw := message.ToolCalls[i].Function.Arguments
			if strings.TrimSpace(raw) != "" {
				if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
					return agent.Message{}, fmt.Errorf("%w: decode tool call arguments for %q: %v",
						ErrUpstream, message.ToolCalls[i].Function.Name, err)
				}
			}
			toolCalls[i] = agent.ToolCall{
				ID:           message.ToolCalls[i].ID,
				Type:         message.ToolCalls[i].Type,
				Name:         message.ToolCalls[i].Function.Name,
				Arguments:    arguments,
				RawArguments: raw,
			}
		}
	}

	return agent.Message{
		Role:      agent.RoleAssistant,
		Content:   message.Content,
		ToolCalls: toolCalls,
	}, nil
}
