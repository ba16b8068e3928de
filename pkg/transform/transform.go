package transform

import (
	"strings"

	"jirascraper/pkg/jira"
	"jirascraper/pkg/models"
)

// Defaults substituted for absent fields. Issues in old projects
// routinely lack descriptions, priorities or reporters.
const (
	defaultTitle       = "No Title"
	defaultDescription = "No Description"
	defaultUnknown     = "Unknown"
)

// ComposeIssue turns a raw API issue and its comments into an output
// record. Missing or null fields never fail the transform; they fall
// back to placeholder values.
func ComposeIssue(issue jira.Issue, comments []jira.Comment) models.IssueRecord {
	fields := issue.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}

	project := issue.Key
	if idx := strings.Index(issue.Key, "-"); idx > 0 {
		project = issue.Key[:idx]
	}

	title := stringField(fields, "summary", defaultTitle)
	description := stringField(fields, "description", defaultDescription)
	issueType := nestedField(fields, "issuetype", "name", defaultUnknown)

	record := models.IssueRecord{
		Key:     issue.Key,
		Project: project,
		Status:  nestedField(fields, "status", "name", defaultUnknown),
		Metadata: map[string]interface{}{
			models.MetaTitle:        title,
			models.MetaDescription:  description,
			models.MetaPriority:     nestedField(fields, "priority", "name", defaultUnknown),
			models.MetaIssueType:    issueType,
			models.MetaReporter:     nestedField(fields, "reporter", "displayName", defaultUnknown),
			models.MetaAssignee:     nestedFieldOrNil(fields, "assignee", "displayName"),
			models.MetaCreated:      stringField(fields, "created", ""),
			models.MetaUpdated:      stringField(fields, "updated", ""),
			models.MetaResolved:     fields["resolutiondate"],
			models.MetaLabels:       stringSlice(fields["labels"]),
			models.MetaComponents:   componentNames(fields["components"]),
			models.MetaTrainingTask: classifyTrainingTask(issueType, description, len(comments)),
		},
		Comments: composeComments(comments),
	}

	return record
}

// classifyTrainingTask assigns a dataset category from the issue shape.
// Bugs with discussion make question/answer pairs, long descriptions
// make summarization examples, well-typed issues make classification
// examples.
func classifyTrainingTask(issueType, description string, commentCount int) string {
	lowered := strings.ToLower(issueType)

	if lowered == "bug" && commentCount > 2 {
		return models.TaskQuestionAnswering
	}
	if len(description) > 500 {
		return models.TaskSummarization
	}
	switch lowered {
	case "bug", "improvement", "new feature", "task":
		return models.TaskClassification
	}
	return models.TaskGeneral
}

func composeComments(comments []jira.Comment) []models.CommentRecord {
	records := make([]models.CommentRecord, 0, len(comments))
	for _, c := range comments {
		author := c.Author
		if author == "" {
			author = defaultUnknown
		}
		records = append(records, models.CommentRecord{
			ID:        c.ID,
			Author:    author,
			Body:      c.Body,
			Timestamp: c.Created,
		})
	}
	return records
}

// stringField reads a top-level string field, substituting def when the
// field is absent, null, or not a string.
func stringField(fields map[string]interface{}, key, def string) string {
	if s, ok := fields[key].(string); ok && s != "" {
		return s
	}
	return def
}

// nestedField reads obj[key][nested] as a string with a default
func nestedField(fields map[string]interface{}, key, nested, def string) string {
	obj, ok := fields[key].(map[string]interface{})
	if !ok {
		return def
	}
	if s, ok := obj[nested].(string); ok && s != "" {
		return s
	}
	return def
}

// nestedFieldOrNil is like nestedField but yields nil when absent, so
// the JSON output carries an explicit null.
func nestedFieldOrNil(fields map[string]interface{}, key, nested string) interface{} {
	obj, ok := fields[key].(map[string]interface{})
	if !ok {
		return nil
	}
	if s, ok := obj[nested].(string); ok && s != "" {
		return s
	}
	return nil
}

func stringSlice(value interface{}) []string {
	out := []string{}
	items, ok := value.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func componentNames(value interface{}) []string {
	out := []string{}
	items, ok := value.([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			if name, ok := obj["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}
