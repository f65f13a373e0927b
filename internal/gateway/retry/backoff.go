// Package retry implements the priority-class retry policy for
// rate-limited attempts: bounded budgets, deterministic backoff
// schedules, Retry-After hints, and the one-shot strong-to-fast model
// downgrade under persistent rate limiting.
package retry

import (
	"errors"
	"time"

	"github.com/ahrav/go-llmgate/internal/gateway/transport"
)

// Schedule returns the wait before retrying the given 0-based attempt
// index, absent an upstream hint.
//
// Interactive doubles from its base: 1s, 2s, 4s, 8s, capped at 15s.
// Background triples from its base: 5s, 15s, capped at 30s.
func (c Config) Schedule(priority transport.PriorityClass, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	var base, ceiling time.Duration
	var multiplier int64
	switch priority {
	case transport.PriorityBackground:
		base, ceiling, multiplier = c.BackgroundBase, c.BackgroundCap, 3
	default:
		base, ceiling, multiplier = c.InteractiveBase, c.InteractiveCap, 2
	}

	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= time.Duration(multiplier)
		if backoff >= ceiling {
			return ceiling
		}
	}
	if backoff > ceiling {
		return ceiling
	}
	return backoff
}

// Budget returns the attempt budget for a priority class.
func (c Config) Budget(priority transport.PriorityClass) int {
	if priority == transport.PriorityBackground {
		return c.BackgroundAttempts
	}
	return c.InteractiveAttempts
}

// wait picks the upstream Retry-After hint when one is present, capped
// so a hostile or confused upstream cannot stall a caller, and falls
// back to the schedule otherwise.
func (c Config) wait(priority transport.PriorityClass, attempt int, err error) time.Duration {
	if hint := retryAfterHint(err); hint > 0 {
		if hint > c.RetryAfterCap {
			return c.RetryAfterCap
		}
		return hint
	}
	return c.Schedule(priority, attempt)
}

// retryAfterProvider is implemented by errors that carry an upstream
// wait hint.
type retryAfterProvider interface {
	GetRetryAfter() time.Duration
}

func retryAfterHint(err error) time.Duration {
	var provider retryAfterProvider
	if errors.As(err, &provider) {
		return provider.GetRetryAfter()
	}
	return 0
}
