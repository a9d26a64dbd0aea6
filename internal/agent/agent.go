// Package agent defines the uniform port over the engine's reasoning
// collaborators and the adapters implementing it: preprocessing, knowledge
// lookup, assignment matching, and the conversation bridge.
package agent

import "context"

// Port is the contract every collaborator adapter satisfies. Inputs and
// outputs are loosely typed maps so the engine can drive heterogeneous
// collaborators through one call shape.
type Port interface {
	Name() string
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

func stringValue(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func stringsValue(input map[string]any, key string) []string {
	switch v := input[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func boolValue(input map[string]any, key string) bool {
	v, _ := input[key].(bool)
	return v
}
