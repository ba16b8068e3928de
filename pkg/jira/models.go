package jira

// Issue is one issue as returned by the search endpoint. Fields is kept
// as a raw map because the requested field list is configurable; the
// transform layer navigates it defensively.
type Issue struct {
	Key    string                 `json:"key"`
	Fields map[string]interface{} `json:"fields"`
}

// Comment is a single issue comment with the author already flattened
// to a display name.
type Comment struct {
	ID      string
	Author  string
	Body    string
	Created string
}

// Page is one page of search results
type Page struct {
	Issues  []Issue
	StartAt int
	Total   int
	// HasMore reports whether another page exists after this one
	HasMore bool
}

// searchResponse mirrors the search endpoint payload
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// commentsResponse mirrors the comment listing payload
type commentsResponse struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Comments   []rawComment `json:"comments"`
}

type rawComment struct {
	ID     string `json:"id"`
	Author struct {
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}
