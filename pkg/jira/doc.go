// Package jira implements the client for the Jira REST API (v2).
//
// The client covers the two endpoints the scraper needs: paginated
// issue search (ordered by creation time so pagination is stable) and
// per-issue comment listing. Every request is paced through a rate
// limiter, and failures are classified into the shared error taxonomy:
// 429 responses are rate-limited (with the Retry-After header parsed
// into the error), 5xx and network failures are transient, other 4xx
// are fatal, and undecodable bodies are malformed.
package jira
