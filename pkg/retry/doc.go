// Package retry provides bounded retry with exponential backoff for
// transient API failures.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid synchronized retries
//   - Context support for cancellation
//   - Configurable retry predicates over the error taxonomy
//   - Server-demanded Retry-After waits honored as a delay floor
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.Ping(ctx)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     60 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		Context: ctx,
//		Logger:  logger.GetLogger(),
//	}
//	page, err := retry.DoWithResult(func() (*jira.Page, error) {
//		return client.FetchPage(ctx, project, offset, pageSize)
//	}, cfg)
//
// Only rate-limited and transient errors are retried by the default
// predicate; fatal, malformed and I/O errors surface immediately.
package retry
