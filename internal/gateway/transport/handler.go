package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
)

// Handler processes one gateway attempt through the middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
// Applied in reverse order with the last middleware closest to the core.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. The first
// middleware is outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// httpHandler is the core handler: it acquires a credential, issues the
// HTTP call under the priority deadline, and reports the outcome to the
// credential's health record.
type httpHandler struct {
	client   *http.Client
	endpoint string
	selector *credentials.Selector
	logger   *slog.Logger
}

// NewHTTPHandler creates the core handler over a discovered credential
// pool. endpoint is the chat-completion URL root (no trailing path).
func NewHTTPHandler(client *http.Client, endpoint string, selector *credentials.Selector) Handler {
	if client == nil {
		client = &http.Client{}
	}
	return &httpHandler{
		client:   client,
		endpoint: endpoint,
		selector: selector,
		logger:   slog.Default().With("component", "transport"),
	}
}

// Handle implements one attempt: acquire, send, evaluate.
//
// Lease accounting follows the call lifecycle, not the attempt: a 429
// reports the rate limit but keeps the lease held, handing it back on
// the partial Response for the retry layer to release before the next
// acquisition. Success and plain failures release here.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	var lease *credentials.Lease
	secret := req.BypassSecret
	if secret == "" {
		var err error
		lease, err = h.selector.Acquire(req.Subsystem)
		if err != nil {
			return nil, err
		}
		secret = lease.Secret()
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := buildChatRequest(reqCtx, h.endpoint, secret, req)
	if err != nil {
		if lease != nil {
			lease.Release()
		}
		return nil, err
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		if lease != nil {
			lease.Release()
		}
		if errors.Is(err, context.DeadlineExceeded) || (reqCtx.Err() != nil && ctx.Err() == nil) {
			return nil, &gaterrors.TimeoutError{
				Subsystem: req.Subsystem,
				Deadline:  req.Timeout,
			}
		}
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp, err := parseChatResponse(httpResp, req, lease)
	resp = annotate(resp, lease)
	if resp != nil {
		resp.Usage.LatencyMs = latency.Milliseconds()
	}

	switch {
	case err == nil:
		if lease != nil {
			lease.ReportSuccess()
			lease.Release()
		}
		return resp, nil

	case gaterrors.IsRateLimit(err):
		if lease != nil {
			lease.ReportRateLimited()
			if resp == nil {
				resp = annotate(&Response{StatusCode: http.StatusTooManyRequests}, lease)
			}
			resp.Lease = lease // held; retry layer releases before reacquiring
			h.logger.Debug("rate limited",
				"subsystem", req.Subsystem,
				"credential", lease.Label(),
				"attempt", req.Attempt,
				"trace_id", req.TraceID)
		}
		return resp, err

	default:
		if lease != nil {
			lease.Release()
		}
		return resp, err
	}
}

// annotate stamps credential identity on the response for monitoring.
func annotate(resp *Response, lease *credentials.Lease) *Response {
	if resp == nil || lease == nil {
		return resp
	}
	resp.CredentialLabel = lease.Label()
	resp.SelectorIndex = lease.SelectorIndex
	return resp
}
