package gateway

import (
	"context"
	"log/slog"
	"time"

	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
	"github.com/ahrav/go-llmgate/internal/gateway/transport"
)

// newLoggingMiddleware logs one line per logical call with its outcome
// classification. Message content and secrets never appear; subsystem,
// tier, and credential labels are the observable surface.
func newLoggingMiddleware() transport.Middleware {
	logger := slog.Default().With("component", "gateway")

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Warn("call failed",
					"subsystem", req.Subsystem,
					"priority", req.Priority,
					"error_type", string(gaterrors.Classify(err)),
					"elapsed", elapsed,
					"trace_id", req.TraceID,
					"error", err)
				return resp, err
			}

			logger.Info("call completed",
				"subsystem", req.Subsystem,
				"priority", req.Priority,
				"model", resp.Model,
				"credential", resp.CredentialLabel,
				"selector_index", resp.SelectorIndex,
				"total_tokens", resp.Usage.TotalTokens,
				"elapsed", elapsed,
				"trace_id", req.TraceID)
			return resp, nil
		})
	}
}
