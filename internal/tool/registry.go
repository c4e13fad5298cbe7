package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"promobot/internal/domain"
	"promobot/internal/metrics"
)

// Registry holds all available tools and executes them. Arguments are
// validated against each tool's declared parameter schema before execution;
// validation failures are non-retriable and surface to the caller.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]domain.Tool),
		logger: logger,
	}
}

func (r *Registry) Register(t domain.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	r.logger.Debug("registered tool", "name", t.Name())
}

func (r *Registry) Get(name string) domain.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	t := r.Get(name)
	if t == nil {
		return "", fmt.Errorf("unknown tool: %s (available: %v)", name, r.Names())
	}
	if err := ValidateArgs(t.Parameters(), args); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	result, err := t.Execute(ctx, args)
	metrics.ToolExecutions.Inc()
	metrics.ToolLatency.Observe(time.Since(start).Seconds())
	return result, err
}

// GetDefinitions returns tool definitions in OpenAI-compatible format for the LLM.
func (r *Registry) GetDefinitions() []domain.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
	Enum        []string
}

// ToolParameters builds a JSON Schema "parameters" object for a tool.
func ToolParameters(properties map[string]Param, required []string) map[string]any {
	props := make(map[string]any)
	for name, p := range properties {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" {
			prop["items"] = map[string]any{"type": "string"}
		}
		props[name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateArgs checks args against a JSON Schema "parameters" object:
// required fields must be present, and provided values must match the
// declared type (and enum, when one is declared).
func ValidateArgs(schema map[string]any, args map[string]any) error {
	props, _ := schema["properties"].(map[string]any)

	if required, ok := schema["required"].([]string); ok {
		for _, field := range required {
			v, present := args[field]
			if !present || v == nil || v == "" {
				return fmt.Errorf("missing required field: %s", field)
			}
		}
	}

	for name, raw := range args {
		propAny, ok := props[name]
		if !ok {
			continue // unknown args are ignored, models pad freely
		}
		prop, _ := propAny.(map[string]any)
		declared, _ := prop["type"].(string)

		switch declared {
		case "string":
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("field %s: expected string, got %T", name, raw)
			}
			if enum, ok := prop["enum"].([]string); ok && len(enum) > 0 && s != "" {
				if !contains(enum, s) {
					return fmt.Errorf("field %s: %q not in %v", name, s, enum)
				}
			}
		case "number", "integer":
			switch raw.(type) {
			case float64, int, int64:
			default:
				return fmt.Errorf("field %s: expected number, got %T", name, raw)
			}
		case "array":
			switch v := raw.(type) {
			case []string:
			case []any:
				for _, item := range v {
					if _, ok := item.(string); !ok {
						return fmt.Errorf("field %s: expected array of strings", name)
					}
				}
			default:
				return fmt.Errorf("field %s: expected array, got %T", name, raw)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// ArgsString extracts a string argument, tolerating missing keys.
func ArgsString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// ArgsStringSlice extracts a string-slice argument, tolerating missing keys
// and the []any shape JSON decoding produces.
func ArgsStringSlice(args map[string]any, key string) []string {
	if args == nil {
		return nil
	}
	switch v := args[key].(type) {
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
	default:
		return nil
	}
}

// ArgsInt extracts a numeric argument as int, with a fallback default.
func ArgsInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}
