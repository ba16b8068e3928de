package scraper

import (
	"context"
	"time"

	"jirascraper/pkg/checkpoint"
	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/jira"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/models"
	"jirascraper/pkg/retry"
	"jirascraper/pkg/storage"
	"jirascraper/pkg/transform"
)

// Engine drives the page-by-page harvest of a single project. Progress
// is checkpointed once per fully persisted page, so a resumed run
// refetches at most one page and skips the records it already wrote.
type Engine struct {
	client Client
	writer *storage.Writer
	store  *checkpoint.Store
	config *config.Config
	logger logger.Logger

	// Backoff overrides the retry backoff strategy. Nil means the
	// default exponential backoff.
	Backoff retry.BackoffStrategy
}

// Stats summarizes one project run
type Stats struct {
	Project         string
	IssuesWritten   int
	IssuesSkipped   int
	CommentsFetched int
	PagesFetched    int
	Elapsed         time.Duration
}

// NewEngine creates an engine for one project run
func NewEngine(client Client, writer *storage.Writer, store *checkpoint.Store, cfg *config.Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{
		client: client,
		writer: writer,
		store:  store,
		config: cfg,
		logger: log,
	}
}

// Run harvests the project until the listing is exhausted, the issue cap
// is reached, or an unrecoverable error occurs. The checkpoint on disk
// is only ever advanced past a page whose records are all durable, so a
// failed run never loses acknowledged work.
func (e *Engine) Run(ctx context.Context, project string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{Project: project}
	log := e.logger.WithField("project", project)

	cp, err := e.store.Load()
	if err != nil {
		return stats, err
	}

	offset := 0
	if cp.TotalFetched > 0 || cp.LastIssueKey != "" {
		// Resume: refetch the last checkpointed page. Records from it
		// that are already in the output are skipped by key.
		offset = cp.LastPageOffset
		log.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"last_page_offset": cp.LastPageOffset,
			"last_issue_key":   cp.LastIssueKey,
			"total_fetched":    cp.TotalFetched,
		})
		if cp.LastIssueKey != "" && !e.writer.HasKey(cp.LastIssueKey) {
			// The checkpoint claims this key was flushed, but the output
			// file does not contain it. Refetching the page rewrites it.
			log.WarnWithFields("checkpoint is ahead of the output dataset", map[string]interface{}{
				"last_issue_key": cp.LastIssueKey,
			})
		}
	}

	// Keys written during this run. A key the server hands us twice in
	// one run means pagination is broken and the output can no longer be
	// trusted.
	written := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if e.capReached() {
			log.InfoWithFields("issue cap reached", map[string]interface{}{
				"max_issues": e.config.Scrape.MaxIssues,
			})
			break
		}

		page, err := e.fetchPage(ctx, project, offset)
		if err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		stats.PagesFetched++

		capped, err := e.processPage(ctx, page.Issues, cp, written, stats, log)
		if err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		if capped {
			// The page was cut short by the cap; its checkpoint is not
			// saved. The records written are durable and will be skipped
			// by key on the next run.
			break
		}

		cp.LastPageOffset = offset
		cp.TotalFetched = e.writer.Count()
		if err := e.store.Save(cp); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}

		if !page.HasMore {
			log.InfoWithFields("project exhausted", map[string]interface{}{
				"total": page.Total,
			})
			break
		}
		offset++
	}

	stats.Elapsed = time.Since(start)
	log.InfoWithFields("project run finished", map[string]interface{}{
		"issues_written": stats.IssuesWritten,
		"issues_skipped": stats.IssuesSkipped,
		"pages_fetched":  stats.PagesFetched,
		"elapsed":        stats.Elapsed.String(),
	})

	return stats, nil
}

// processPage writes every new issue on the page. Returns true when the
// issue cap cut the page short.
func (e *Engine) processPage(ctx context.Context, issues []jira.Issue, cp *checkpoint.Checkpoint, written map[string]struct{}, stats *Stats, log logger.Logger) (bool, error) {
	for _, issue := range issues {
		if issue.Key == "" {
			return false, errs.New(errs.KindMalformed, "issue record without a key")
		}

		if _, dup := written[issue.Key]; dup {
			return false, errs.Newf(errs.KindMalformed,
				"issue %s returned twice in one run; pagination is unstable", issue.Key)
		}

		if e.writer.HasKey(issue.Key) {
			stats.IssuesSkipped++
			log.DebugWithFields("skipping already persisted issue", map[string]interface{}{
				"issue": issue.Key,
			})
			continue
		}

		if e.capReached() {
			return true, nil
		}

		record, commentCount, err := e.buildRecord(ctx, issue)
		if err != nil {
			return false, err
		}

		if err := e.writer.Append(record); err != nil {
			return false, err
		}

		written[issue.Key] = struct{}{}
		cp.LastIssueKey = issue.Key
		stats.IssuesWritten++
		stats.CommentsFetched += commentCount
	}

	return false, nil
}

// buildRecord fetches the issue's comments and composes the output record
func (e *Engine) buildRecord(ctx context.Context, issue jira.Issue) (models.IssueRecord, int, error) {
	comments, err := retry.DoWithResult(func() ([]jira.Comment, error) {
		return e.client.FetchComments(ctx, issue.Key)
	}, e.retryConfig(ctx))
	if err != nil {
		return models.IssueRecord{}, 0, err
	}

	return transform.ComposeIssue(issue, comments), len(comments), nil
}

func (e *Engine) fetchPage(ctx context.Context, project string, offset int) (*jira.Page, error) {
	return retry.DoWithResult(func() (*jira.Page, error) {
		return e.client.FetchPage(ctx, project, offset, e.config.Scrape.PageSize)
	}, e.retryConfig(ctx))
}

func (e *Engine) capReached() bool {
	max := e.config.Scrape.MaxIssues
	return max > 0 && e.writer.Count() >= max
}

func (e *Engine) retryConfig(ctx context.Context) *retry.Config {
	backoff := e.Backoff
	if backoff == nil {
		backoff = retry.DefaultExponentialBackoff()
	}
	return &retry.Config{
		MaxAttempts: e.config.Scrape.MaxRetries,
		Backoff:     backoff,
		RetryIf:     errs.IsRetryable,
		Context:     ctx,
		Logger:      e.logger,
	}
}
