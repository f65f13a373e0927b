package gateway

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-llmgate/internal/gateway/configuration"
	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	"github.com/ahrav/go-llmgate/internal/gateway/retry"
	"github.com/ahrav/go-llmgate/internal/gateway/transport"
)

// Client mediates all outbound LLM calls for internal subsystems.
type Client interface {
	// Invoke executes one logical call: validate, select a credential,
	// send under the priority deadline, and recover rate limits per the
	// retry policy. Returns a response envelope or a classified error.
	Invoke(ctx context.Context, req *Request) (*ResponseEnvelope, error)

	// Status returns a read-only snapshot of pool health for dashboards.
	Status() PoolStatus
}

type client struct {
	config   *configuration.Config
	registry *credentials.Registry
	handler  transport.Handler

	// legacySecret backs calls when zero pool credentials were
	// discovered; empty otherwise.
	legacySecret string

	inFlightInteractive atomic.Int64
}

// New builds the gateway: discovers credentials from the configured
// slots, wires the selector into the transport core, and wraps it with
// the retry and logging layers.
func New(cfg *configuration.Config) (Client, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	registry := credentials.NewRegistry(cfg)
	registry.Discover()

	endpoint := cfg.BaseURL
	if registry.Len() == 0 && cfg.AltBaseURL != "" {
		endpoint = cfg.AltBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	selector := credentials.NewSelector(registry, cfg.Selection.BestEffort)
	core := transport.NewHTTPHandler(httpClient, endpoint, selector)

	retryMiddleware, err := retry.NewMiddleware(retry.Config{
		InteractiveAttempts: cfg.Retry.InteractiveAttempts,
		BackgroundAttempts:  cfg.Retry.BackgroundAttempts,
		InteractiveBase:     cfg.Retry.InteractiveBase,
		InteractiveCap:      cfg.Retry.InteractiveCap,
		BackgroundBase:      cfg.Retry.BackgroundBase,
		BackgroundCap:       cfg.Retry.BackgroundCap,
		RetryAfterCap:       cfg.Retry.RetryAfterCap,
		FastModel:           cfg.Models.Fast,
		StrongModel:         cfg.Models.Strong,
	})
	if err != nil {
		return nil, err
	}

	handler := transport.Chain(core, newLoggingMiddleware(), retryMiddleware)

	c := &client{
		config:   cfg,
		registry: registry,
		handler:  handler,
	}
	if registry.Len() == 0 && cfg.LegacySecretEnv != "" {
		c.legacySecret = os.Getenv(cfg.LegacySecretEnv)
	}
	return c, nil
}

// Invoke implements Client.
func (c *client) Invoke(ctx context.Context, req *Request) (*ResponseEnvelope, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	treq := c.normalize(req)

	if treq.Priority == PriorityInteractive {
		c.inFlightInteractive.Add(1)
		defer c.inFlightInteractive.Add(-1)
	}

	resp, err := c.handler.Handle(ctx, treq)
	if err != nil {
		return nil, err
	}

	return &ResponseEnvelope{
		Content:         resp.Content,
		ToolCalls:       resp.ToolCalls,
		FinishReason:    resp.FinishReason,
		Model:           resp.Model,
		Usage:           resp.Usage,
		CredentialLabel: resp.CredentialLabel,
		SelectorIndex:   resp.SelectorIndex,
		TraceID:         treq.TraceID,
	}, nil
}

// normalize maps the caller request to the wire request: resolved
// subsystem tag, concrete model for the resolved tier, and the
// priority-class deadline.
func (c *client) normalize(req *Request) *transport.Request {
	priority := req.Priority
	if priority == "" {
		priority = PriorityBackground
	}

	tier := req.Tier
	if tier == TierAuto {
		// Tool calls lean on the strong model; plain completions default fast.
		if len(req.Tools) > 0 {
			tier = TierStrong
		} else {
			tier = TierFast
		}
	}

	model := c.config.Models.Fast
	if tier == TierStrong {
		model = c.config.Models.Strong
	}

	timeout := c.config.Timeouts.Background
	if priority == PriorityInteractive {
		timeout = c.config.Timeouts.Interactive
	}

	// Zero discovered credentials is a valid state: calls fall back to
	// the single legacy credential when one is present.
	bypass := req.BypassSecret
	if bypass == "" && c.legacySecret != "" {
		bypass = c.legacySecret
	}

	return &transport.Request{
		Subsystem:      string(credentials.Resolve(req.Subsystem)),
		Priority:       priority,
		Tier:           tier,
		Model:          model,
		Messages:       req.Messages,
		Tools:          req.Tools,
		ToolChoice:     req.ToolChoice,
		ResponseFormat: req.ResponseFormat,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		Timeout:        timeout,
		TraceID:        uuid.NewString(),
		BypassSecret:   bypass,
	}
}

// Status implements Client.
func (c *client) Status() PoolStatus {
	status := c.registry.Snapshot()
	status.InFlightInteractive = c.inFlightInteractive.Load()
	return status
}
