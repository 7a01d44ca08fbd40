package generation

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"project_partner_backend/internal/logger"
)

// Bounded retry for provider-level rate-limit errors. Exhausting the bound
// surfaces the error to the caller as a hard failure.
var (
	rateLimitAttempts = 3
	rateLimitInterval = 60 * time.Second
)

// retryOnRateLimit runs op, retrying only rate-limit errors with a fixed
// interval between attempts. Any other error is permanent.
func retryOnRateLimit[T any](ctx context.Context, op func() (T, error)) (T, error) {
	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(rateLimitInterval), uint64(rateLimitAttempts-1)),
		ctx,
	)

	return backoff.RetryWithData(func() (T, error) {
		attempt++
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !isRateLimitError(err) {
			return result, backoff.Permanent(err)
		}
		logger.Warn().
			Int("attempt", attempt).
			Err(err).
			Msg("Provider rate limit hit, waiting before retry")
		return result, err
	}, policy)
}

// isRateLimitError reports whether the provider signalled throttling.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "resource_exhausted")
}
