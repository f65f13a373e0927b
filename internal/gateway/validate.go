package gateway

import (
	"fmt"

	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
)

var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"tool":      true,
}

var validToolChoiceModes = map[string]bool{
	"auto":     true,
	"none":     true,
	"required": true,
}

// validateRequest fails fast on malformed caller input, before any
// credential is acquired or network call made.
func validateRequest(req *Request) error {
	if req == nil {
		return &gaterrors.ValidationError{Message: "request is nil"}
	}
	if len(req.Messages) == 0 {
		return &gaterrors.ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	for i, m := range req.Messages {
		if !validRoles[m.Role] {
			return &gaterrors.ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("unknown role %q", m.Role),
			}
		}
	}

	names := make(map[string]bool, len(req.Tools))
	for i, t := range req.Tools {
		if t.Name == "" {
			return &gaterrors.ValidationError{
				Field:   fmt.Sprintf("tools[%d].name", i),
				Message: "tool name is required",
			}
		}
		if names[t.Name] {
			return &gaterrors.ValidationError{
				Field:   fmt.Sprintf("tools[%d].name", i),
				Message: fmt.Sprintf("duplicate tool name %q", t.Name),
			}
		}
		names[t.Name] = true
	}

	if tc := req.ToolChoice; tc != nil {
		switch {
		case tc.Name != "":
			if !names[tc.Name] {
				return &gaterrors.ValidationError{
					Field:   "tool_choice",
					Message: fmt.Sprintf("tool %q is not defined", tc.Name),
				}
			}
		case validToolChoiceModes[tc.Mode]:
		default:
			return &gaterrors.ValidationError{
				Field:   "tool_choice",
				Message: fmt.Sprintf("unknown mode %q", tc.Mode),
			}
		}
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_object":
		case "json_schema":
			if len(rf.Schema) == 0 {
				return &gaterrors.ValidationError{
					Field:   "response_format.schema",
					Message: "json_schema format requires a schema",
				}
			}
			if rf.Name == "" {
				return &gaterrors.ValidationError{
					Field:   "response_format.name",
					Message: "json_schema format requires a name",
				}
			}
		default:
			return &gaterrors.ValidationError{
				Field:   "response_format.type",
				Message: fmt.Sprintf("unknown type %q", rf.Type),
			}
		}
	}

	if req.MaxTokens < 0 {
		return &gaterrors.ValidationError{Field: "max_tokens", Message: "must not be negative"}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &gaterrors.ValidationError{Field: "temperature", Message: "must be in [0, 2]"}
	}

	switch req.Tier {
	case TierAuto, TierFast, TierStrong:
	default:
		return &gaterrors.ValidationError{
			Field:   "tier",
			Message: fmt.Sprintf("unknown tier %q", req.Tier),
		}
	}

	return nil
}
