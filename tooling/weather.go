package tooling

import (
	"context"
	"fmt"
)

// NewWeatherExecutor builds the demo in-process tool used by cmd/agentmcp
// and the tooling tests: a deterministic stand-in that never calls out
// to a real weather API, so the wiring can be exercised offline.
func NewWeatherExecutor() *FuncExecutor {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "City and state or country, e.g. 'Portland, OR'",
			},
		},
		"required": []any{"location"},
	}

	return NewFuncExecutor("get_weather", "Reports the current weather for a location.", schema,
		func(_ context.Context, arguments map[string]any) (string, error) {
			location, _ := arguments["location"].(string)
			if location == "" {
				return "", fmt.Errorf("location is required")
			}
			return fmt.Sprintf("It is 61F and overcast in %s.", location), nil
		})
}
