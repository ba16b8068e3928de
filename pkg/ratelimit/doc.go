// Package ratelimit provides rate limiting for outgoing API requests.
//
// The token bucket limiter refills to capacity once per period, which
// maps directly onto a requests-per-minute budget. Wait blocks until a
// token is available or the context is cancelled, so the scraper never
// sleeps past a shutdown signal.
package ratelimit
