package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ratelimit"
)

// Client talks to the Jira REST API. Every request is paced through the
// rate limiter before it leaves the process; classification of failures
// into the error taxonomy happens here so callers only ever see typed
// errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	apiToken   string
	fields     string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new Jira API client
func NewClient(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Scrape.RequestTimeout,
		},
		baseURL:   cfg.Jira.BaseURL,
		userAgent: cfg.Jira.UserAgent,
		apiToken:  cfg.Jira.APIToken,
		fields:    cfg.Jira.Fields,
		limiter:   limiter,
		logger:    log,
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used in tests to
// inject a stub transport.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// FetchPage fetches one page of issues for a project. The offset is a
// page number, not a record index; the record offset sent to the API is
// offset multiplied by pageSize.
func (c *Client) FetchPage(ctx context.Context, project string, offset, pageSize int) (*Page, error) {
	startAt := offset * pageSize
	url := SearchURL(c.baseURL, project, startAt, pageSize, c.fields)

	c.logger.DebugWithFields("fetching issue page", map[string]interface{}{
		"project":  project,
		"offset":   offset,
		"start_at": startAt,
	})

	var resp searchResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	page := &Page{
		Issues:  resp.Issues,
		StartAt: resp.StartAt,
		Total:   resp.Total,
		HasMore: resp.StartAt+len(resp.Issues) < resp.Total,
	}

	c.logger.DebugWithFields("fetched issue page", map[string]interface{}{
		"project": project,
		"offset":  offset,
		"issues":  len(page.Issues),
		"total":   page.Total,
	})

	return page, nil
}

// FetchComments fetches all comments for an issue, following comment
// pagination until the listing is exhausted.
func (c *Client) FetchComments(ctx context.Context, issueKey string) ([]Comment, error) {
	var comments []Comment

	for startAt := 0; ; {
		url := CommentsURL(c.baseURL, issueKey, startAt)

		var resp commentsResponse
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}

		for _, rc := range resp.Comments {
			comments = append(comments, Comment{
				ID:      rc.ID,
				Author:  rc.Author.DisplayName,
				Body:    rc.Body,
				Created: rc.Created,
			})
		}

		startAt += len(resp.Comments)
		if len(resp.Comments) == 0 || startAt >= resp.Total {
			break
		}
	}

	c.logger.DebugWithFields("fetched comments", map[string]interface{}{
		"issue":    issueKey,
		"comments": len(comments),
	})

	return comments, nil
}

// getJSON performs a rate-limited GET request and decodes the JSON body
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Newf(errs.KindFatal, "failed to create request: %v", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return errs.Newf(errs.KindTransient, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Newf(errs.KindTransient, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.Newf(errs.KindMalformed, "failed to parse JSON: %v", err)
	}

	return nil
}

// statusError classifies a non-200 response. Rate-limited responses
// carry the Retry-After header as the minimum wait before retrying.
func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	msg := fmt.Sprintf("unexpected status from %s", resp.Request.URL.Path)
	if len(snippet) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, string(snippet))
	}

	apiErr := errs.FromStatus(resp.StatusCode, msg)
	if apiErr.Kind == errs.KindRateLimited {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"url":         resp.Request.URL.String(),
			"retry_after": apiErr.RetryAfter,
		})
		return apiErr
	}

	c.logger.WarnWithFields("API request rejected", map[string]interface{}{
		"url":    resp.Request.URL.String(),
		"status": resp.StatusCode,
		"kind":   string(apiErr.Kind),
	})
	return apiErr
}

// parseRetryAfter parses a Retry-After header value, either delay
// seconds or an HTTP date. Returns zero when absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
