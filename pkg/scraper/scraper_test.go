package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jirascraper/pkg/config"
	"jirascraper/pkg/jira"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/models"
	"jirascraper/pkg/ratelimit"
	"jirascraper/pkg/retry"
	"jirascraper/pkg/storage"
)

// projectClient routes page fetches to a per-project fake
type projectClient struct {
	byProject map[string]*fakeClient
}

func (p *projectClient) FetchPage(ctx context.Context, project string, offset, pageSize int) (*jira.Page, error) {
	return p.byProject[project].FetchPage(ctx, project, offset, pageSize)
}

func (p *projectClient) FetchComments(ctx context.Context, issueKey string) ([]jira.Comment, error) {
	for _, c := range p.byProject {
		if comments, ok := c.comments[issueKey]; ok {
			return comments, nil
		}
	}
	return nil, nil
}

func TestScraperRunsProjectsSequentially(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Scrape.Projects = []string{"KAFKA", "BEAM"}
	cfg.Scrape.PageSize = 2
	cfg.Output.Directory = filepath.Join(dir, "output")

	client := &projectClient{byProject: map[string]*fakeClient{
		"KAFKA": {pages: [][]jira.Issue{{issue("KAFKA-1"), issue("KAFKA-2")}}},
		"BEAM":  {pages: [][]jira.Issue{{issue("BEAM-1")}}},
	}}

	s := NewWithClient(client, cfg, logger.NewTestLogger())
	s.SetBackoff(&retry.ConstantBackoff{Delay: time.Millisecond})

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.IssuesWritten)
	require.Len(t, summary.Projects, 2)
	assert.Equal(t, "KAFKA", summary.Projects[0].Project)
	assert.Equal(t, "BEAM", summary.Projects[1].Project)

	assert.Equal(t, []string{"KAFKA-1", "KAFKA-2"}, outputKeys(t, s.OutputPath("KAFKA")))
	assert.Equal(t, []string{"BEAM-1"}, outputKeys(t, s.OutputPath("BEAM")))

	assert.FileExists(t, s.CheckpointPath("KAFKA"))
	assert.FileExists(t, s.CheckpointPath("BEAM"))

	// The lock is released once the run finishes.
	_, err = os.Stat(filepath.Join(cfg.Output.Directory, "scrape.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestScraperFailedProjectAbortsRemaining(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Scrape.Projects = []string{"KAFKA", "BEAM"}
	cfg.Scrape.MaxRetries = 1
	cfg.Output.Directory = filepath.Join(dir, "output")

	beam := &fakeClient{pages: [][]jira.Issue{{issue("BEAM-1")}}}
	kafka := &fakeClient{
		pages:    [][]jira.Issue{{issue("KAFKA-1")}},
		pageErrs: map[int][]error{0: {fmt.Errorf("disk on fire")}},
	}

	client := &projectClient{byProject: map[string]*fakeClient{"KAFKA": kafka, "BEAM": beam}}

	s := NewWithClient(client, cfg, logger.NewTestLogger())
	s.SetBackoff(&retry.ConstantBackoff{Delay: time.Millisecond})

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project KAFKA")

	assert.Equal(t, 0, beam.pageCalls, "BEAM must not start after KAFKA failed")
}

func TestScraperLockBlocksConcurrentRun(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Scrape.Projects = []string{"KAFKA"}
	cfg.Output.Directory = dir

	lock, err := storage.AcquireLock(filepath.Join(dir, "scrape.lock"))
	require.NoError(t, err)
	defer lock.Release()

	client := &projectClient{byProject: map[string]*fakeClient{
		"KAFKA": {pages: [][]jira.Issue{{issue("KAFKA-1")}}},
	}}

	s := NewWithClient(client, cfg, logger.NewTestLogger())
	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked by another process")
}

func TestScraperCheckpointPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Directory = "out"

	s := NewWithClient(&projectClient{}, cfg, logger.NewTestLogger())

	assert.Equal(t, filepath.Join("out", "checkpoint.KAFKA.json"), s.CheckpointPath("KAFKA"))
	assert.Equal(t, filepath.Join("out", "kafka_issues.jsonl"), s.OutputPath("KAFKA"))
}

// TestScraperEndToEnd drives the real API client against a stub server
// through the full orchestrator path.
func TestScraperEndToEnd(t *testing.T) {
	issues := []map[string]interface{}{
		{"key": "HARMONY-1", "fields": map[string]interface{}{
			"summary":     "JVM crash",
			"description": "segfault in the interpreter loop",
			"status":      map[string]interface{}{"name": "Closed"},
			"issuetype":   map[string]interface{}{"name": "Bug"},
		}},
		{"key": "HARMONY-2", "fields": map[string]interface{}{
			"summary": "Add build docs",
			"status":  map[string]interface{}{"name": "Open"},
		}},
		{"key": "HARMONY-3", "fields": map[string]interface{}{
			"summary": "Flaky GC test",
			"status":  map[string]interface{}{"name": "Open"},
		}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
			maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
			end := startAt + maxResults
			if end > len(issues) {
				end = len(issues)
			}
			page := issues[startAt:end]
			json.NewEncoder(w).Encode(map[string]interface{}{
				"startAt":    startAt,
				"maxResults": maxResults,
				"total":      len(issues),
				"issues":     page,
			})
		case r.URL.Path == "/issue/HARMONY-1/comment":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"startAt": 0, "total": 1,
				"comments": []map[string]interface{}{
					{"id": "10", "author": map[string]interface{}{"displayName": "Dev"}, "body": "fixed in r100"},
				},
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"startAt": 0, "total": 0, "comments": []interface{}{}})
		}
	}))
	defer server.Close()

	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Jira.BaseURL = server.URL
	cfg.Scrape.Projects = []string{"HARMONY"}
	cfg.Scrape.PageSize = 2
	cfg.Output.Directory = dir

	client := jira.NewClient(cfg, ratelimit.Unlimited{}, logger.NewTestLogger())

	s := NewWithClient(client, cfg, logger.NewTestLogger())
	s.SetBackoff(&retry.ConstantBackoff{Delay: time.Millisecond})

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.IssuesWritten)
	assert.Equal(t, 1, summary.CommentsFetched)

	data, err := os.ReadFile(s.OutputPath("HARMONY"))
	require.NoError(t, err)

	var first models.IssueRecord
	require.NoError(t, json.Unmarshal([]byte(firstLine(string(data))), &first))
	assert.Equal(t, "HARMONY-1", first.Key)
	assert.Equal(t, "HARMONY", first.Project)
	assert.Equal(t, "Closed", first.Status)
	assert.Equal(t, "JVM crash", first.Metadata[models.MetaTitle])
	require.Len(t, first.Comments, 1)
	assert.Equal(t, "Dev", first.Comments[0].Author)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
