package errors

import (
	"context"
	"errors"
)

// Classify maps an error to its taxonomy type for logging and metrics.
func Classify(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return ErrorTypeValidation
	case IsRateLimit(err), errors.Is(err, ErrAllCredentialsCooling):
		return ErrorTypeRateLimit
	case IsTimeout(err):
		return ErrorTypeTimeout
	case IsExhausted(err):
		return ErrorTypeExhausted
	case errors.Is(err, ErrNoCredentials):
		return ErrorTypeNoCredentials
	default:
		return ErrorTypeUpstream
	}
}

// IsRateLimit reports whether err is an upstream 429.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTimeout reports whether err is a deadline expiry, either classified
// or a raw context.DeadlineExceeded that escaped the transport.
func IsTimeout(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsExhausted reports whether err is a terminal retry-budget failure.
func IsExhausted(err error) bool {
	var re *RateLimitExhaustedError
	return errors.As(err, &re)
}

// IsRetryable reports whether the retry layer should attempt the call
// again. Only rate limits are recovered internally; every other class
// propagates to the caller untouched.
func IsRetryable(err error) bool {
	return IsRateLimit(err)
}
