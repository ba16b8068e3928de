package scraper

import (
	"context"

	"jirascraper/pkg/jira"
)

// Client is the API surface the engine needs. Satisfied by jira.Client;
// tests substitute fakes.
type Client interface {
	// FetchPage fetches one page of issues for a project
	FetchPage(ctx context.Context, project string, offset, pageSize int) (*jira.Page, error)
	// FetchComments fetches all comments for an issue
	FetchComments(ctx context.Context, issueKey string) ([]jira.Comment, error)
}
