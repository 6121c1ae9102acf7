// Package github implements the tracker port against the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"

	"github.com/forgeworks/agentdispatch/internal/port/tracker"
)

// Tracker posts assignment comments and labels back to GitHub issues.
type Tracker struct {
	gh *gh.Client
}

var _ tracker.Tracker = (*Tracker)(nil)

// NewTracker creates a Tracker with the standard transport stack:
// go-github-ratelimit (sleeps on secondary rate limits) wrapping the
// go-github REST client with PAT auth.
func NewTracker(token string) *Tracker {
	rateLimitClient := github_ratelimit.NewClient(nil)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)
	return &Tracker{gh: client}
}

// NewTrackerWithHTTPClient creates a Tracker with a custom http.Client and
// base URL, intended for tests against an httptest server.
func NewTrackerWithHTTPClient(httpClient *http.Client, baseURL string) (*Tracker, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	client.BaseURL = u

	return &Tracker{gh: client}, nil
}

// AddComment posts a comment on the issue.
func (t *Tracker) AddComment(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, _, err = t.gh.Issues.CreateComment(ctx, owner, name, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("create comment on %s#%d: %w", repo, number, err)
	}
	return nil
}

// AddLabels adds labels to the issue.
func (t *Tracker) AddLabels(ctx context.Context, repo string, number int, labels []string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	_, _, err = t.gh.Issues.AddLabelsToIssue(ctx, owner, name, number, labels)
	if err != nil {
		return fmt.Errorf("add labels to %s#%d: %w", repo, number, err)
	}
	return nil
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository ref %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}
