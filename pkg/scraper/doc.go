// Package scraper provides the core engine for harvesting Jira issues.
//
// The Scraper orchestrates a run across the configured projects; each
// project is driven by an Engine that pages through the search API,
// fetches comments per issue, transforms the raw data and appends it to
// a line-delimited JSON file.
//
// Durability model:
//
// The engine checkpoints once per fully persisted page. Individual
// records are synced to the output file as they are written, so a crash
// mid-page loses no acknowledged data: the next run refetches the
// unfinished page and skips records already present in the output,
// matched by issue key. Rerunning a completed project writes nothing.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s := scraper.New(cfg)
//	summary, err := s.Run(ctx)
//
// Failure handling:
//
// Rate-limited (429) and transient (5xx, network) failures are retried
// with exponential backoff up to the configured attempt budget. Any
// other failure halts the run; completed projects keep their output and
// checkpoints, and the failed project resumes from its last checkpoint
// on the next invocation.
package scraper
