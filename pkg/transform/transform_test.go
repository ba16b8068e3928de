package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jirascraper/pkg/jira"
	"jirascraper/pkg/models"
)

func fullIssue() jira.Issue {
	return jira.Issue{
		Key: "KAFKA-123",
		Fields: map[string]interface{}{
			"summary":        "Broker crashes on startup",
			"description":    "The broker fails when the log dir is missing",
			"status":         map[string]interface{}{"name": "Resolved"},
			"priority":       map[string]interface{}{"name": "Major"},
			"issuetype":      map[string]interface{}{"name": "Bug"},
			"reporter":       map[string]interface{}{"displayName": "Alice"},
			"assignee":       map[string]interface{}{"displayName": "Bob"},
			"created":        "2024-01-01T00:00:00.000+0000",
			"updated":        "2024-01-05T00:00:00.000+0000",
			"resolutiondate": "2024-01-05T00:00:00.000+0000",
			"labels":         []interface{}{"storage", "startup"},
			"components":     []interface{}{map[string]interface{}{"name": "core"}},
		},
	}
}

func TestComposeIssue(t *testing.T) {
	record := ComposeIssue(fullIssue(), []jira.Comment{
		{ID: "1", Author: "Carol", Body: "seen this too", Created: "2024-01-02T00:00:00.000+0000"},
	})

	assert.Equal(t, "KAFKA-123", record.Key)
	assert.Equal(t, "KAFKA", record.Project)
	assert.Equal(t, "Resolved", record.Status)
	assert.Equal(t, "Broker crashes on startup", record.Metadata[models.MetaTitle])
	assert.Equal(t, "Major", record.Metadata[models.MetaPriority])
	assert.Equal(t, "Bug", record.Metadata[models.MetaIssueType])
	assert.Equal(t, "Alice", record.Metadata[models.MetaReporter])
	assert.Equal(t, "Bob", record.Metadata[models.MetaAssignee])
	assert.Equal(t, []string{"storage", "startup"}, record.Metadata[models.MetaLabels])
	assert.Equal(t, []string{"core"}, record.Metadata[models.MetaComponents])

	if assert.Len(t, record.Comments, 1) {
		assert.Equal(t, "Carol", record.Comments[0].Author)
		assert.Equal(t, "2024-01-02T00:00:00.000+0000", record.Comments[0].Timestamp)
	}
}

func TestComposeIssueMissingFields(t *testing.T) {
	record := ComposeIssue(jira.Issue{Key: "OLD-1", Fields: map[string]interface{}{}}, nil)

	assert.Equal(t, "OLD-1", record.Key)
	assert.Equal(t, "OLD", record.Project)
	assert.Equal(t, "Unknown", record.Status)
	assert.Equal(t, "No Title", record.Metadata[models.MetaTitle])
	assert.Equal(t, "No Description", record.Metadata[models.MetaDescription])
	assert.Equal(t, "Unknown", record.Metadata[models.MetaPriority])
	assert.Nil(t, record.Metadata[models.MetaAssignee])
	assert.Nil(t, record.Metadata[models.MetaResolved])
	assert.Equal(t, []string{}, record.Metadata[models.MetaLabels])
	assert.Empty(t, record.Comments)
}

func TestComposeIssueNilFields(t *testing.T) {
	record := ComposeIssue(jira.Issue{Key: "ABC-1"}, nil)
	assert.Equal(t, "No Title", record.Metadata[models.MetaTitle])
}

func TestComposeIssueNullNestedField(t *testing.T) {
	issue := fullIssue()
	issue.Fields["assignee"] = nil
	issue.Fields["priority"] = nil

	record := ComposeIssue(issue, nil)
	assert.Nil(t, record.Metadata[models.MetaAssignee])
	assert.Equal(t, "Unknown", record.Metadata[models.MetaPriority])
}

func TestClassifyTrainingTask(t *testing.T) {
	longDesc := strings.Repeat("x", 501)

	tests := []struct {
		name         string
		issueType    string
		description  string
		commentCount int
		want         string
	}{
		{"bug with discussion", "Bug", "short", 3, models.TaskQuestionAnswering},
		{"bug with few comments", "Bug", "short", 2, models.TaskClassification},
		{"long description wins over type", "Improvement", longDesc, 0, models.TaskSummarization},
		{"bug with long description but discussion", "bug", longDesc, 5, models.TaskQuestionAnswering},
		{"improvement", "Improvement", "short", 0, models.TaskClassification},
		{"new feature", "New Feature", "short", 0, models.TaskClassification},
		{"task", "Task", "short", 0, models.TaskClassification},
		{"wish", "Wish", "short", 0, models.TaskGeneral},
		{"unknown type", "Unknown", "short", 0, models.TaskGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTrainingTask(tt.issueType, tt.description, tt.commentCount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComposeIssueTrainingTaskInMetadata(t *testing.T) {
	record := ComposeIssue(fullIssue(), []jira.Comment{{ID: "1"}, {ID: "2"}, {ID: "3"}})
	assert.Equal(t, models.TaskQuestionAnswering, record.Metadata[models.MetaTrainingTask])
}

func TestComposeCommentsUnknownAuthor(t *testing.T) {
	record := ComposeIssue(fullIssue(), []jira.Comment{{ID: "1", Body: "orphan"}})
	assert.Equal(t, "Unknown", record.Comments[0].Author)
}
