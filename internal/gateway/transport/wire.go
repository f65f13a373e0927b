package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
)

// buildChatRequest constructs the chat-completion POST from a
// normalized request. Bearer auth uses the selected (or bypass) secret.
func buildChatRequest(ctx context.Context, endpoint, secret string, req *Request) (*http.Request, error) {
	url := fmt.Sprintf("%s/chat/completions", endpoint)

	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{
			"role":    m.Role,
			"content": m.Content,
		})
	}

	body := map[string]any{
		"model":    req.Model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}

	if len(req.Tools) > 0 {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		body["tools"] = tools
	}

	if req.ToolChoice != nil {
		if req.ToolChoice.Name != "" {
			body["tool_choice"] = map[string]any{
				"type":     "function",
				"function": map[string]any{"name": req.ToolChoice.Name},
			}
		} else {
			body["tool_choice"] = req.ToolChoice.Mode
		}
	}

	if rf := req.ResponseFormat; rf != nil {
		switch rf.Type {
		case "json_schema":
			body["response_format"] = map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   rf.Name,
					"schema": rf.Schema,
				},
			}
		default:
			body["response_format"] = map[string]any{"type": rf.Type}
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret)
	if req.TraceID != "" {
		httpReq.Header.Set("X-Trace-Id", req.TraceID)
	}

	return httpReq, nil
}

// parseChatResponse evaluates the upstream response. A 429 yields a
// partial Response plus a RateLimitError carrying any Retry-After hint;
// other non-2xx yield an UpstreamError; 2xx parses the envelope.
func parseChatResponse(httpResp *http.Response, req *Request, lease *credentials.Lease) (*Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		label := ""
		if lease != nil {
			label = lease.Label()
		}
		return &Response{
				StatusCode: httpResp.StatusCode,
				Headers:    httpResp.Header,
				RawBody:    body,
			}, &gaterrors.RateLimitError{
				Subsystem:  req.Subsystem,
				Credential: label,
				StatusCode: httpResp.StatusCode,
				RetryAfter: parseRetryAfter(httpResp.Header.Get("Retry-After")),
			}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			RawBody:    body,
		}, parseUpstreamError(httpResp.StatusCode, body)
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Role      string `json:"role"`
				Content   string `json:"content"`
				ToolCalls []struct {
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
			TotalTokens      int64 `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &gaterrors.UpstreamError{
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("malformed response body: %v", err),
		}
	}

	resp := &Response{
		Model:      parsed.Model,
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		RawBody:    body,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}

	if len(parsed.Choices) > 0 {
		choice := parsed.Choices[0]
		resp.Content = choice.Message.Content
		resp.FinishReason = choice.FinishReason
		for _, tc := range choice.Message.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	return resp, nil
}

// parseUpstreamError extracts the provider's structured error when the
// body carries one, falling back to the raw body.
func parseUpstreamError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &gaterrors.UpstreamError{
			StatusCode: statusCode,
			Code:       errResp.Error.Code,
			Message:    errResp.Error.Message,
		}
	}

	return &gaterrors.UpstreamError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
// Returns zero when the header is absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
