// Package transport carries gateway requests to the upstream
// chat-completion API. It provides the Handler/Middleware abstraction
// the retry and logging layers compose over, plus the wire codec for
// the JSON request and response bodies.
package transport

import (
	"net/http"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
)

// PriorityClass governs the per-call deadline and the retry budget.
type PriorityClass string

const (
	// PriorityInteractive is low-latency, user-facing work.
	PriorityInteractive PriorityClass = "interactive"
	// PriorityBackground is best-effort work.
	PriorityBackground PriorityClass = "background"
)

// ModelTier is the cost/capability selector for the upstream model.
type ModelTier string

const (
	// TierFast selects the small, cheap model.
	TierFast ModelTier = "fast"
	// TierStrong selects the large, expensive model.
	TierStrong ModelTier = "strong"
)

// Message is one role-tagged entry of the conversation payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool is a function definition offered to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolChoice constrains which tool the model may call. Mode is one of
// "auto", "none", "required"; Name pins a specific tool.
type ToolChoice struct {
	Mode string `json:"mode,omitempty"`
	Name string `json:"name,omitempty"`
}

// ResponseFormat requests structured output. Type is "json_object" or
// "json_schema"; Schema and Name apply to the latter.
type ResponseFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// Request is one normalized attempt payload. The retry layer stamps
// Attempt, Tier, and Model per attempt; everything else is fixed for
// the logical call.
type Request struct {
	Subsystem string        `json:"subsystem"`
	Priority  PriorityClass `json:"priority"`

	Tier  ModelTier `json:"tier"`
	Model string    `json:"model"`

	Messages       []Message       `json:"messages"`
	Tools          []Tool          `json:"tools,omitempty"`
	ToolChoice     *ToolChoice     `json:"tool_choice,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	MaxTokens      int64           `json:"max_tokens"`
	Temperature    *float64        `json:"temperature,omitempty"`

	// Timeout is the priority-class deadline applied per attempt.
	Timeout time.Duration `json:"timeout"`

	// Attempt is the 0-based index within the current retry budget.
	Attempt int `json:"attempt"`

	// TraceID correlates log lines across the attempts of one call.
	TraceID string `json:"trace_id"`

	// BypassSecret, when set, skips the credential pool entirely.
	BypassSecret string `json:"-"`
}

// ToolCall is one tool invocation in the model's reply.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage normalizes upstream token accounting.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}

// Response is the parsed outcome of one attempt. On a 429 the handler
// returns a partial Response alongside the error so the retry layer can
// release the still-held lease before the next acquisition.
type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Model        string     `json:"model"`
	Usage        Usage      `json:"usage"`
	StatusCode   int        `json:"status_code"`

	// CredentialLabel and SelectorIndex describe which credential served
	// the attempt; empty/zero for bypass calls.
	CredentialLabel string `json:"credential_label,omitempty"`
	SelectorIndex   int    `json:"selector_index"`

	Headers http.Header `json:"-"`
	RawBody []byte      `json:"-"`

	// Lease is the still-held acquisition after a 429, nil otherwise.
	Lease *credentials.Lease `json:"-"`
}
