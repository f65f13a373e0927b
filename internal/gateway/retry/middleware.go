package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/credentials"
	gaterrors "github.com/ahrav/go-llmgate/internal/gateway/errors"
	"github.com/ahrav/go-llmgate/internal/gateway/transport"
)

// The downgrade check fires once the attempt index reaches this value.
// Persistent rate limiting on the strong model is cheaper to resolve by
// switching to the fast model than by exhausting the budget.
const downgradeAtAttempt = 2

// Configuration validation errors.
var (
	errAttemptsInvalid  = errors.New("attempt budgets must be greater than 0")
	errIntervalsInvalid = errors.New("backoff base and cap must be positive with base <= cap")
	errModelsRequired   = errors.New("fast and strong model names are required")

	errContextCancelled = errors.New("context cancelled during retry backoff")
)

// Config controls the retry policy. Model names are needed because the
// downgrade path rewrites the attempt's model in place.
type Config struct {
	InteractiveAttempts int
	BackgroundAttempts  int
	InteractiveBase     time.Duration
	InteractiveCap      time.Duration
	BackgroundBase      time.Duration
	BackgroundCap       time.Duration
	RetryAfterCap       time.Duration

	FastModel   string
	StrongModel string

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMiddleware validates the policy and returns the retry middleware.
func NewMiddleware(cfg Config) (transport.Middleware, error) {
	if cfg.InteractiveAttempts <= 0 || cfg.BackgroundAttempts <= 0 {
		return nil, fmt.Errorf("%w: interactive=%d background=%d",
			errAttemptsInvalid, cfg.InteractiveAttempts, cfg.BackgroundAttempts)
	}
	if cfg.InteractiveBase <= 0 || cfg.BackgroundBase <= 0 ||
		cfg.InteractiveCap < cfg.InteractiveBase || cfg.BackgroundCap < cfg.BackgroundBase {
		return nil, errIntervalsInvalid
	}
	if cfg.FastModel == "" || cfg.StrongModel == "" {
		return nil, errModelsRequired
	}
	if cfg.sleep == nil {
		cfg.sleep = sleepContext
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
	}
	return rm.middleware(), nil
}

type retryMiddleware struct {
	config Config
	logger *slog.Logger
}

// middleware drives the per-call loop: Sending -> Evaluating ->
// Retrying -> Sending, as an explicit loop rather than recursion.
// Only rate limits re-enter the loop; every other outcome returns
// immediately.
func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			budget := r.config.Budget(req.Priority)
			tier := req.Tier
			model := req.Model
			attempt := 0
			downgraded := false

			// The lease from a 429'd attempt stays held (the request
			// counted as in flight until the call completes); it is
			// released right before the next acquisition, or on exit.
			var held *credentials.Lease
			releaseHeld := func() {
				if held != nil {
					held.Release()
					held = nil
				}
			}

			for {
				cur := *req
				cur.Attempt = attempt
				cur.Tier = tier
				cur.Model = model

				releaseHeld()
				resp, err := next.Handle(ctx, &cur)

				if err == nil {
					if attempt > 0 || downgraded {
						r.logger.Info("request succeeded after retry",
							"subsystem", req.Subsystem,
							"attempt", attempt,
							"tier", tier,
							"downgraded", downgraded,
							"trace_id", req.TraceID)
					}
					return resp, nil
				}

				if !gaterrors.IsRetryable(err) {
					return resp, err
				}

				if resp != nil {
					held = resp.Lease
				}

				if attempt+1 >= budget {
					releaseHeld()
					return nil, &gaterrors.RateLimitExhaustedError{
						Subsystem:  req.Subsystem,
						Attempts:   attempt + 1,
						LastStatus: http.StatusTooManyRequests,
						Downgraded: downgraded,
					}
				}

				wait := r.config.wait(req.Priority, attempt, err)
				r.logger.Debug("rate limited, backing off",
					"subsystem", req.Subsystem,
					"attempt", attempt,
					"wait", wait,
					"tier", tier,
					"trace_id", req.TraceID)

				if sleepErr := r.config.sleep(ctx, wait); sleepErr != nil {
					releaseHeld()
					return nil, fmt.Errorf("%w: %w", errContextCancelled, sleepErr)
				}

				if attempt >= downgradeAtAttempt && tier == transport.TierStrong {
					r.logger.Info("persistent rate limiting, downgrading model tier",
						"subsystem", req.Subsystem,
						"from", r.config.StrongModel,
						"to", r.config.FastModel,
						"trace_id", req.TraceID)
					tier = transport.TierFast
					model = r.config.FastModel
					attempt = 0
					downgraded = true
					continue
				}

				attempt++
			}
		})
	}
}

// sleepContext waits for d, honoring cancellation so an abandoned call
// stops scheduling further attempts.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
