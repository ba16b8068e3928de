package jira

import (
	"fmt"
	"net/url"
	"strconv"
)

// SearchURL builds the issue search endpoint for one page of a project.
// Issues are ordered by creation time ascending so pagination is stable
// across runs.
func SearchURL(baseURL, project string, startAt, maxResults int, fields string) string {
	params := url.Values{}
	params.Set("jql", fmt.Sprintf("project = %s ORDER BY created ASC", project))
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if fields != "" {
		params.Set("fields", fields)
	}
	return baseURL + "/search?" + params.Encode()
}

// CommentsURL builds the comment listing endpoint for a single issue
func CommentsURL(baseURL, issueKey string, startAt int) string {
	params := url.Values{}
	params.Set("startAt", strconv.Itoa(startAt))
	return baseURL + "/issue/" + url.PathEscape(issueKey) + "/comment?" + params.Encode()
}
