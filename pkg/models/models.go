package models

// IssueRecord is one scraped issue as it appears in the output dataset,
// serialized as a single JSON line. Records are immutable once written;
// a later run supersedes them only by a fresh fetch.
type IssueRecord struct {
	Key      string                 `json:"key"`
	Project  string                 `json:"project"`
	Status   string                 `json:"status"`
	Metadata map[string]interface{} `json:"metadata"`
	Comments []CommentRecord        `json:"comments"`
}

// CommentRecord belongs to exactly one issue
type CommentRecord struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// Metadata keys populated by the transformer. Kept as constants so the
// writer, validator and tests agree on spelling.
const (
	MetaTitle        = "title"
	MetaDescription  = "description"
	MetaPriority     = "priority"
	MetaIssueType    = "issue_type"
	MetaReporter     = "reporter"
	MetaAssignee     = "assignee"
	MetaCreated      = "created"
	MetaUpdated      = "updated"
	MetaResolved     = "resolved"
	MetaLabels       = "labels"
	MetaComponents   = "components"
	MetaTrainingTask = "training_task"
)

// Training task categories assigned to each issue
const (
	TaskQuestionAnswering = "question_answering"
	TaskSummarization     = "summarization"
	TaskClassification    = "classification"
	TaskGeneral           = "general"
)
