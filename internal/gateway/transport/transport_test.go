package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-llmgate/internal/gateway/configuration"
	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
)

// newTestPool builds a discovered registry and selector backed by
// env-provided secrets for the content and misc slots.
func newTestPool(t *testing.T) (*credentials.Registry, *credentials.Selector) {
	t.Helper()
	t.Setenv("LLMGATE_KEY_CONTENT", "sk-content")
	t.Setenv("LLMGATE_KEY_MISC", "sk-misc")

	reg := credentials.NewRegistry(configuration.DefaultConfig())
	reg.Discover()
	return reg, credentials.NewSelector(reg, true)
}

func chatCompletionBody(content string) string {
	return `{
		"model": "gpt-4o-mini",
		"choices": [{"message": {"role": "assistant", "content": ` + quoteJSON(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
	}`
}

func quoteJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHTTPHandler_Success(t *testing.T) {
	reg, sel := newTestPool(t)

	var gotAuth, gotPath, gotTrace string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotTrace = r.Header.Get("X-Trace-Id")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody("hello there")))
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.Client(), server.URL, sel)
	resp, err := handler.Handle(context.Background(), &Request{
		Subsystem: "content",
		Priority:  PriorityInteractive,
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		TraceID:   "trace-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-content", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "trace-123", gotTrace)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])

	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(19), resp.Usage.TotalTokens)
	assert.Equal(t, "content-pool", resp.CredentialLabel)
	assert.Equal(t, credentials.IndexPrimary, resp.SelectorIndex)
	assert.Nil(t, resp.Lease, "success must not hand the lease upward")

	status := reg.Get(credentials.SubsystemContent).Status()
	assert.Equal(t, 0, status.Active, "lease released on success")
	assert.Equal(t, int64(1), status.TotalRequests)
	assert.False(t, status.Cooling)
}

func TestHTTPHandler_RateLimitKeepsLeaseHeld(t *testing.T) {
	reg, sel := newTestPool(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.Client(), server.URL, sel)
	resp, err := handler.Handle(context.Background(), &Request{
		Subsystem: "content",
		Priority:  PriorityInteractive,
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)

	var rle *gaterrors.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "content", rle.Subsystem)
	assert.Equal(t, "content-pool", rle.Credential)
	assert.Equal(t, 12*time.Second, rle.GetRetryAfter())

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotNil(t, resp.Lease, "429 hands the held lease to the retry layer")

	status := reg.Get(credentials.SubsystemContent).Status()
	assert.Equal(t, 1, status.Active, "lease stays held through a 429")
	assert.True(t, status.Cooling)
	assert.Equal(t, int64(1), status.TotalLimited)

	resp.Lease.Release()
	assert.Equal(t, 0, reg.Get(credentials.SubsystemContent).Status().Active)
}

func TestHTTPHandler_UpstreamError(t *testing.T) {
	reg, sel := newTestPool(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "server exploded", "code": "internal_error"}}`))
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.Client(), server.URL, sel)
	_, err := handler.Handle(context.Background(), &Request{
		Subsystem: "content",
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)

	var ue *gaterrors.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Equal(t, "internal_error", ue.Code)
	assert.Equal(t, "server exploded", ue.Message)

	status := reg.Get(credentials.SubsystemContent).Status()
	assert.Equal(t, 0, status.Active, "lease released on plain failure")
	assert.False(t, status.Cooling, "non-429 must not trip the cooldown")
}

func TestHTTPHandler_Timeout(t *testing.T) {
	reg, sel := newTestPool(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.Client(), server.URL, sel)
	_, err := handler.Handle(context.Background(), &Request{
		Subsystem: "content",
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		Timeout:   50 * time.Millisecond,
	})
	require.Error(t, err)

	var te *gaterrors.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "content", te.Subsystem)
	assert.Equal(t, 50*time.Millisecond, te.Deadline)

	assert.Equal(t, 0, reg.Get(credentials.SubsystemContent).Status().Active)
}

// TestHTTPHandler_BypassSecret verifies a caller-supplied secret skips
// the pool entirely: no acquisition, no health accounting.
func TestHTTPHandler_BypassSecret(t *testing.T) {
	reg := credentials.NewRegistry(configuration.DefaultConfig())
	reg.Discover() // no env set: empty pool
	sel := credentials.NewSelector(reg, true)

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody("ok")))
	}))
	defer server.Close()

	handler := NewHTTPHandler(server.Client(), server.URL, sel)
	resp, err := handler.Handle(context.Background(), &Request{
		Subsystem:    "content",
		Model:        "gpt-4o-mini",
		Messages:     []Message{{Role: "user", Content: "hi"}},
		BypassSecret: "sk-legacy",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-legacy", gotAuth)
	assert.Empty(t, resp.CredentialLabel)
}

func TestHTTPHandler_NoCredentials(t *testing.T) {
	reg := credentials.NewRegistry(configuration.DefaultConfig())
	reg.Discover()
	sel := credentials.NewSelector(reg, true)

	handler := NewHTTPHandler(nil, "http://unreachable.invalid", sel)
	_, err := handler.Handle(context.Background(), &Request{
		Subsystem: "content",
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, gaterrors.ErrNoCredentials)
}

func TestBuildChatRequest_WireShape(t *testing.T) {
	temp := 0.2
	req := &Request{
		Model:       "gpt-4o",
		Messages:    []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		MaxTokens:   256,
		Temperature: &temp,
		Tools: []Tool{{
			Name:        "lookup_order",
			Description: "Fetch an order by id",
			Parameters:  map[string]any{"type": "object"},
		}},
		ToolChoice: &ToolChoice{Name: "lookup_order"},
		ResponseFormat: &ResponseFormat{
			Type:   "json_schema",
			Name:   "order",
			Schema: map[string]any{"type": "object"},
		},
	}

	httpReq, err := buildChatRequest(context.Background(), "https://example.test/v1", "sk-x", req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/v1/chat/completions", httpReq.URL.String())
	assert.Equal(t, "application/json", httpReq.Header.Get("Content-Type"))

	raw, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "gpt-4o", body["model"])
	assert.Len(t, body["messages"], 2)
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.EqualValues(t, 0.2, body["temperature"])

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	choice, ok := body["tool_choice"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function", choice["type"])

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"absent", "", 0},
		{"delta seconds", "12", 12 * time.Second},
		{"zero", "0", 0},
		{"negative", "-3", 0},
		{"garbage", "soon", 0},
		{"past http date", "Mon, 02 Jan 2006 15:04:05 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value))
		})
	}

	t.Run("future http date", func(t *testing.T) {
		future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
		got := parseRetryAfter(future)
		assert.Greater(t, got, 5*time.Second)
		assert.LessOrEqual(t, got, 10*time.Second)
	})
}
