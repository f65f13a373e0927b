// Package gateway is the single entry point internal subsystems use to
// call the external LLM API. It owns the credential pool, normalizes
// caller requests, and executes them with cooldown-aware key selection
// and priority-class retry policy.
package gateway

import (
	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	"github.com/ahrav/go-llmgate/internal/gateway/transport"
)

// Payload types shared with the transport layer.
type (
	// Message is one role-tagged conversation entry.
	Message = transport.Message
	// Tool is a function definition offered to the model.
	Tool = transport.Tool
	// ToolChoice constrains which tool the model may call.
	ToolChoice = transport.ToolChoice
	// ResponseFormat requests structured output.
	ResponseFormat = transport.ResponseFormat
	// ToolCall is one tool invocation in the model's reply.
	ToolCall = transport.ToolCall
	// Usage is normalized token accounting.
	Usage = transport.Usage

	// PriorityClass governs deadline and retry budget.
	PriorityClass = transport.PriorityClass
	// ModelTier selects the fast or strong upstream model.
	ModelTier = transport.ModelTier
)

// Re-exported enum values so callers import one package.
const (
	PriorityInteractive = transport.PriorityInteractive
	PriorityBackground  = transport.PriorityBackground

	TierFast   = transport.TierFast
	TierStrong = transport.TierStrong

	// TierAuto defers tier selection to the gateway: strong when tools
	// are attached, fast otherwise.
	TierAuto ModelTier = ""
)

// PoolStatus re-exports the credential pool snapshot.
type PoolStatus = credentials.PoolStatus

// Request is one logical call from a subsystem. Retries and fallback
// are internal; the caller sees one result.
type Request struct {
	// Messages is the role-tagged conversation; at least one entry.
	Messages []Message

	// Tools and ToolChoice are optional function-calling parameters.
	Tools      []Tool
	ToolChoice *ToolChoice

	// ResponseFormat optionally constrains output structure.
	ResponseFormat *ResponseFormat

	MaxTokens   int64
	Temperature *float64

	// Priority defaults to Background when unset.
	Priority PriorityClass

	// Subsystem selects the dedicated credential. Unknown or empty tags
	// fold into the shared misc pool.
	Subsystem string

	// Tier preference; TierAuto lets the gateway decide.
	Tier ModelTier

	// BypassSecret skips the pool and authenticates with the supplied
	// value directly. No pool counters are touched.
	BypassSecret string
}

// ResponseEnvelope is the successful result of one logical call.
type ResponseEnvelope struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Model        string     `json:"model"`
	Usage        Usage      `json:"usage"`

	// CredentialLabel and SelectorIndex identify which pool credential
	// served the final attempt; empty/zero for bypass calls. A selector
	// index of -1 flags a tag/credential mismatch for monitoring.
	CredentialLabel string `json:"credential_label,omitempty"`
	SelectorIndex   int    `json:"selector_index"`

	// TraceID correlates the call's log lines.
	TraceID string `json:"trace_id"`
}
