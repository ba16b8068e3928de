package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jirascraper/pkg/checkpoint"
	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/jira"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/ratelimit"
	"jirascraper/pkg/retry"
	"jirascraper/pkg/storage"
)

// Scraper orchestrates the harvest across all configured projects.
// Projects run sequentially; each has its own output file and its own
// checkpoint, so a failure in one project does not disturb another's
// progress.
type Scraper struct {
	client  Client
	config  *config.Config
	logger  logger.Logger
	backoff retry.BackoffStrategy
}

// Summary aggregates the per-project stats of one invocation
type Summary struct {
	Projects        []Stats
	IssuesWritten   int
	CommentsFetched int
	Elapsed         time.Duration
}

// New creates a scraper from configuration
func New(cfg *config.Config) *Scraper {
	log := logger.GetLogger()

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	client := jira.NewClient(cfg, limiter, log)

	return &Scraper{
		client: client,
		config: cfg,
		logger: log,
	}
}

// NewWithClient creates a scraper with an injected API client
func NewWithClient(client Client, cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{client: client, config: cfg, logger: log}
}

// Run scrapes every configured project in order. The output directory
// is guarded by a lock file for the duration of the run. The first
// project failure aborts the remaining projects; completed projects
// keep their output and checkpoints.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if err := os.MkdirAll(s.config.Output.Directory, 0755); err != nil {
		return summary, errs.Newf(errs.KindIO, "failed to create output directory: %v", err)
	}

	lock, err := storage.AcquireLock(filepath.Join(s.config.Output.Directory, "scrape.lock"))
	if err != nil {
		return summary, err
	}
	defer lock.Release()

	for _, project := range s.config.Scrape.Projects {
		stats, err := s.runProject(ctx, project)
		if stats != nil {
			summary.Projects = append(summary.Projects, *stats)
			summary.IssuesWritten += stats.IssuesWritten
			summary.CommentsFetched += stats.CommentsFetched
		}
		if err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("project %s: %w", project, err)
		}
	}

	summary.Elapsed = time.Since(start)
	s.logger.InfoWithFields("scrape finished", map[string]interface{}{
		"projects":       len(summary.Projects),
		"issues_written": summary.IssuesWritten,
		"elapsed":        summary.Elapsed.String(),
	})

	return summary, nil
}

// runProject runs the engine for one project with its own writer and
// checkpoint store.
func (s *Scraper) runProject(ctx context.Context, project string) (*Stats, error) {
	writer, err := storage.OpenWriter(s.OutputPath(project), s.logger)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	store := checkpoint.NewStore(s.CheckpointPath(project), s.logger)

	engine := NewEngine(s.client, writer, store, s.config, s.logger)
	if s.backoff != nil {
		engine.Backoff = s.backoff
	}
	return engine.Run(ctx, project)
}

// OutputPath returns the dataset file for a project
func (s *Scraper) OutputPath(project string) string {
	return filepath.Join(s.config.Output.Directory, strings.ToLower(project)+"_issues.jsonl")
}

// CheckpointPath returns the checkpoint file for a project. The
// configured file name gains a per-project infix, e.g. checkpoint.json
// becomes checkpoint.KAFKA.json.
func (s *Scraper) CheckpointPath(project string) string {
	file := s.config.Checkpoint.File
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(s.config.Output.Directory, base+"."+project+ext)
}

// SetBackoff overrides the retry backoff used by project engines
func (s *Scraper) SetBackoff(b retry.BackoffStrategy) {
	s.backoff = b
}
