package agent

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateToolArguments checks parsed tool-call arguments against a
// JSON-Schema parameter schema. An empty or nil schema always validates
// (a tool with no declared schema accepts anything).
func ValidateToolArguments(schema map[string]any, arguments map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	// gojsonschema treats a nil document as JSON null, which fails object
	// schemas; an absent-arguments call is equivalent to an empty object.
	argumentDocument := arguments
	if argumentDocument == nil {
		argumentDocument = map[string]any{}
	}
	documentLoader := gojsonschema.NewGoLoader(argumentDocument)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("compile tool argument schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		messages = append(messages, resultErr.String())
	}
	return fmt.Errorf("tool arguments invalid: %s", strings.Join(messages, "; "))
}

// ValidateToolCallArguments is a convenience wrapper over
// ValidateToolArguments for a specific tool call against its declared
// ToolDefinition.
func ValidateToolCallArguments(call ToolCall, definition ToolDefinition) error {
	return ValidateToolArguments(definition.ParameterSchema, call.Arguments)
}

// NormalizedToolErrorResult builds a ToolResult carrying a structured
// failure reason. It is used both for failures synthesized without
// invoking the underlying executor (unknown tool, invalid arguments,
// access denied) and for errors the executor itself returned.
func NormalizedToolErrorResult(call ToolCall, reason ToolFailureReason, err error) ToolResult {
	message := string(reason)
	if err != nil {
		message = fmt.Sprintf("%s: %s", reason, err.Error())
	}
	return ToolResult{
		CallID:        call.ID,
		Name:          call.Name,
		Content:       message,
		IsError:       true,
		FailureReason: reason,
	}
}

// IndexToolDefinitions builds a name-keyed lookup from an ordered list, the
// shape the agent loop uses to check tool names in O(1).
func IndexToolDefinitions(definitions []ToolDefinition) map[string]ToolDefinition {
	out := make(map[string]ToolDefinition, len(definitions))
	for i := range definitions {
		out[definitions[i].Name] = definitions[i]
	}
	return out
}
